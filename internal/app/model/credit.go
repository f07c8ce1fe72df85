package model

import "time"

// TransactionType classifies a credit ledger entry
type TransactionType string

const (
	TransactionUsage      TransactionType = "usage"
	TransactionBonus      TransactionType = "bonus"
	TransactionRefund     TransactionType = "refund"
	TransactionPurchase   TransactionType = "purchase"
	TransactionAdjustment TransactionType = "adjustment"
)

// CreditTransaction is an immutable, append-only ledger entry. Amount is
// signed (negative for usage); BalanceAfter is the post-transaction balance
// snapshot. Amounts are whole credits, integer arithmetic only.
type CreditTransaction struct {
	ID           string
	UserID       string
	Amount       int64
	Type         TransactionType
	BalanceAfter int64
	EpisodeID    string
	PodcastID    string
	Description  string
	CreatedAt    time.Time
}

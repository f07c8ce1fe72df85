package credits

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "podforge/internal/app/errors"
	"podforge/internal/app/model"
	"podforge/internal/app/repository"
)

// EpisodeCost is the metered cost of one episode generation, in credits
const EpisodeCost int64 = 1

// CheckResult reports whether a user can afford an episode
type CheckResult struct {
	HasEnough bool
	Available int64
	Required  int64
	Deficit   int64
}

// OperationResult is the outcome of a deduction or refund
type OperationResult struct {
	Success       bool
	NewBalance    int64
	TransactionID string
}

// Ledger tracks metered usage as atomic accounting operations over the
// append-only transaction table. Deduction and refund are the pipeline's
// only serialization point per user; the balance mutation happens as a
// single row-level atomic update in the DAO.
type Ledger struct {
	dao    repository.CreditDAO
	logger *zap.Logger
}

// NewLedger creates a credit ledger
func NewLedger(dao repository.CreditDAO, logger *zap.Logger) *Ledger {
	return &Ledger{dao: dao, logger: logger}
}

// CheckCredits reports whether the user holds enough credits for one episode
func (l *Ledger) CheckCredits(ctx context.Context, userID string) (*CheckResult, error) {
	available, err := l.dao.GetBalance(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "credit check failed")
	}

	result := &CheckResult{
		HasEnough: available >= EpisodeCost,
		Available: available,
		Required:  EpisodeCost,
	}
	if !result.HasEnough {
		result.Deficit = EpisodeCost - available
	}
	return result, nil
}

// IsAdmin reports whether the user is exempt from charging
func (l *Ledger) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return l.dao.IsAdmin(ctx, userID)
}

// Deduct atomically verifies sufficiency, decrements the balance and
// appends a usage transaction. Insufficient balance is a non-error result
// with Success false.
func (l *Ledger) Deduct(ctx context.Context, userID, episodeID, podcastID string) (*OperationResult, error) {
	newBalance, ok, err := l.dao.DeductAtomic(ctx, userID, EpisodeCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "credit deduction failed")
	}
	if !ok {
		available, err := l.dao.GetBalance(ctx, userID)
		if err != nil {
			available = 0
		}
		l.logger.Info("credit deduction rejected, insufficient balance",
			zap.String("user_id", userID),
			zap.Int64("available", available))
		return &OperationResult{Success: false, NewBalance: available}, nil
	}

	tx := &model.CreditTransaction{
		ID:           uuid.New().String(),
		UserID:       userID,
		Amount:       -EpisodeCost,
		Type:         model.TransactionUsage,
		BalanceAfter: newBalance,
		EpisodeID:    episodeID,
		PodcastID:    podcastID,
		Description:  "episode generation",
		CreatedAt:    time.Now(),
	}
	if err := l.dao.InsertTransaction(ctx, tx); err != nil {
		return nil, apperrors.Wrap(err, "usage transaction insert failed")
	}

	return &OperationResult{Success: true, NewBalance: newBalance, TransactionID: tx.ID}, nil
}

// Refund is the compensating action for a deduction whose episode later
// failed. It increments the balance and appends a refund transaction.
func (l *Ledger) Refund(ctx context.Context, userID, episodeID, podcastID, reason string) (*OperationResult, error) {
	newBalance, err := l.dao.CreditAtomic(ctx, userID, EpisodeCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "credit refund failed")
	}

	tx := &model.CreditTransaction{
		ID:           uuid.New().String(),
		UserID:       userID,
		Amount:       EpisodeCost,
		Type:         model.TransactionRefund,
		BalanceAfter: newBalance,
		EpisodeID:    episodeID,
		PodcastID:    podcastID,
		Description:  "refund: " + reason,
		CreatedAt:    time.Now(),
	}
	if err := l.dao.InsertTransaction(ctx, tx); err != nil {
		return nil, apperrors.Wrap(err, "refund transaction insert failed")
	}

	l.logger.Info("credits refunded",
		zap.String("user_id", userID),
		zap.String("episode_id", episodeID),
		zap.String("reason", reason))

	return &OperationResult{Success: true, NewBalance: newBalance, TransactionID: tx.ID}, nil
}

// GetTransaction looks up a ledger entry by id; nil when absent
func (l *Ledger) GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error) {
	return l.dao.GetTransaction(ctx, id)
}

// ListTransactions returns a user's full ledger history, oldest first
func (l *Ledger) ListTransactions(ctx context.Context, userID string) ([]model.CreditTransaction, error) {
	return l.dao.ListTransactionsByUser(ctx, userID)
}

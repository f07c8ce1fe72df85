package repository

import (
	"context"
	"time"

	"podforge/internal/app/model"
)

// EpisodeUpdate is a partial-field merge applied to an episode row. Nil
// fields are left untouched.
type EpisodeUpdate struct {
	Title       *string
	Description *string
	Status      *model.EpisodeStatus
	CoverImage  *string
	Metadata    *string
	PublishedAt *time.Time
}

// IsEmpty reports whether the update would touch no columns
func (u EpisodeUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.CoverImage == nil && u.Metadata == nil && u.PublishedAt == nil
}

// EpisodeDAO provides CRUD access to episode rows. Lifecycle semantics
// (state machine, metadata merges, compensation) live above this layer.
type EpisodeDAO interface {
	Close() error

	GetByID(ctx context.Context, id string) (*model.Episode, error)

	GetByPodcast(ctx context.Context, podcastID string) ([]model.Episode, error)

	Update(ctx context.Context, id string, update EpisodeUpdate) error
}

// CreditDAO provides access to user balances and the append-only
// transaction ledger. Balance mutations are atomic row-level updates; the
// read-modify-write pattern is deliberately not exposed.
type CreditDAO interface {
	Close() error

	GetBalance(ctx context.Context, userID string) (int64, error)

	IsAdmin(ctx context.Context, userID string) (bool, error)

	// DeductAtomic decrements the balance only if sufficient funds remain.
	// ok is false (with no error) when the balance check fails.
	DeductAtomic(ctx context.Context, userID string, amount int64) (newBalance int64, ok bool, err error)

	// CreditAtomic increments the balance unconditionally
	CreditAtomic(ctx context.Context, userID string, amount int64) (newBalance int64, err error)

	InsertTransaction(ctx context.Context, tx *model.CreditTransaction) error

	GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error)

	ListTransactionsByUser(ctx context.Context, userID string) ([]model.CreditTransaction, error)
}

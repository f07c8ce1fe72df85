package episode

import (
	"context"
	"time"

	"go.uber.org/zap"

	"podforge/internal/app/credits"
	apperrors "podforge/internal/app/errors"
	"podforge/internal/app/model"
	"podforge/internal/app/repository"
)

// creditRefunder is the slice of the credit ledger the updater needs for
// compensation. Satisfied by *credits.Ledger.
type creditRefunder interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error)
	Refund(ctx context.Context, userID, episodeID, podcastID, reason string) (*credits.OperationResult, error)
}

// refundCounter counts issued compensating refunds. Satisfied by
// *pipeline.Metrics; nil disables counting.
type refundCounter interface {
	CreditRefunded()
}

// StateUpdater drives the episode status machine:
//
//	pending -> summary_completed -> processed | published
//
// with failed reachable from any non-terminal state. Terminal episodes are
// never overwritten by a stale pipeline run.
type StateUpdater struct {
	dao     repository.EpisodeDAO
	ledger  creditRefunder
	logger  *zap.Logger
	metrics refundCounter
}

// NewStateUpdater creates an episode state updater
func NewStateUpdater(dao repository.EpisodeDAO, ledger creditRefunder, logger *zap.Logger, metrics refundCounter) *StateUpdater {
	return &StateUpdater{dao: dao, ledger: ledger, logger: logger, metrics: metrics}
}

// refuseTerminal reports whether the transition must be dropped because the
// episode already reached a terminal state. Terminal episodes are only
// mutated by explicit operator action, never by a stale pipeline run.
func (u *StateUpdater) refuseTerminal(episode *model.Episode, transition string) bool {
	if !episode.Status.IsTerminal() {
		return false
	}
	u.logger.Warn("refusing transition on terminal episode",
		zap.String("episode_id", episode.ID),
		zap.String("status", string(episode.Status)),
		zap.String("transition", transition))
	return true
}

func (u *StateUpdater) load(ctx context.Context, episodeID string) (*model.Episode, error) {
	episode, err := u.dao.GetByID(ctx, episodeID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to load episode %s", episodeID)
	}
	if episode == nil {
		return nil, apperrors.Wrapf(apperrors.ErrEpisodeNotFound, "episode %s", episodeID)
	}
	return episode, nil
}

// UpdateWithSummary persists the generated title and description and moves
// the episode to summary_completed. Fields the caller skipped arrive as empty
// strings and are written as such.
func (u *StateUpdater) UpdateWithSummary(ctx context.Context, episodeID, title, summary string) error {
	episode, err := u.load(ctx, episodeID)
	if err != nil {
		return err
	}
	if u.refuseTerminal(episode, "update with summary") {
		return nil
	}

	// keep the pre-pipeline description recoverable
	metadata := episode.Metadata
	if metadata.OriginalDescription == "" && episode.Description != "" {
		metadata.OriginalDescription = episode.Description
	}

	status := model.StatusSummaryCompleted
	metadataJSON := metadata.Encode()
	err = u.dao.Update(ctx, episodeID, repository.EpisodeUpdate{
		Title:       &title,
		Description: &summary,
		Status:      &status,
		Metadata:    &metadataJSON,
	})
	if err != nil {
		return apperrors.Wrapf(err, "failed to update episode %s with summary", episodeID)
	}

	u.logger.Info("episode summary persisted",
		zap.String("episode_id", episodeID),
		zap.String("status", string(status)))
	return nil
}

// MarkProcessed moves the episode to the processed terminal state. Used by
// code paths that complete without the image stage.
func (u *StateUpdater) MarkProcessed(ctx context.Context, episodeID string) error {
	episode, err := u.load(ctx, episodeID)
	if err != nil {
		return err
	}
	if u.refuseTerminal(episode, "mark processed") {
		return nil
	}

	status := model.StatusProcessed
	err = u.dao.Update(ctx, episodeID, repository.EpisodeUpdate{Status: &status})
	if err != nil {
		return apperrors.Wrapf(err, "failed to mark episode %s processed", episodeID)
	}
	u.logger.Info("episode processed", zap.String("episode_id", episodeID))
	return nil
}

// MarkPublished moves the episode to published and stamps the publish time.
// coverImageURL may be empty when the episode completes without cover art.
func (u *StateUpdater) MarkPublished(ctx context.Context, episodeID, coverImageURL string) error {
	episode, err := u.load(ctx, episodeID)
	if err != nil {
		return err
	}
	if u.refuseTerminal(episode, "mark published") {
		return nil
	}

	status := model.StatusPublished
	now := time.Now()
	update := repository.EpisodeUpdate{
		Status:      &status,
		PublishedAt: &now,
	}
	if coverImageURL != "" {
		update.CoverImage = &coverImageURL
	}

	if err := u.dao.Update(ctx, episodeID, update); err != nil {
		return apperrors.Wrapf(err, "failed to mark episode %s published", episodeID)
	}
	u.logger.Info("episode published",
		zap.String("episode_id", episodeID),
		zap.Bool("has_cover_image", coverImageURL != ""))
	return nil
}

// MarkFailed moves a non-terminal episode to failed and records the failure
// text in its description. When metadata links a usage transaction and the
// owner is not an admin, the paid credits are refunded as a compensating
// action. A refund failure is logged for manual intervention and never
// propagated: the status update must not be lost over it.
func (u *StateUpdater) MarkFailed(ctx context.Context, episodeID string, cause error) error {
	episode, err := u.load(ctx, episodeID)
	if err != nil {
		return err
	}
	if u.refuseTerminal(episode, "mark failed") {
		return nil
	}

	status := model.StatusFailed
	description := "Processing failed"
	if cause != nil {
		description = "Processing failed: " + cause.Error()
	}
	err = u.dao.Update(ctx, episodeID, repository.EpisodeUpdate{
		Status:      &status,
		Description: &description,
	})
	if err != nil {
		return apperrors.Wrapf(err, "failed to mark episode %s failed", episodeID)
	}
	u.logger.Info("episode marked failed",
		zap.String("episode_id", episodeID),
		zap.Error(cause))

	u.refundIfCharged(ctx, episode)
	return nil
}

// refundIfCharged issues the compensating refund for a failed paid episode.
// The metadata transaction linkage is only a hint; the ledger row is
// re-checked so a stale or foreign id cannot trigger a refund.
func (u *StateUpdater) refundIfCharged(ctx context.Context, episode *model.Episode) {
	txID := episode.Metadata.CreditTransactionID
	if txID == "" || episode.CreatedBy == "" {
		return
	}

	isAdmin, err := u.ledger.IsAdmin(ctx, episode.CreatedBy)
	if err != nil {
		u.logger.Error("CRITICAL: refund check failed, manual intervention required",
			zap.String("episode_id", episode.ID),
			zap.String("user_id", episode.CreatedBy),
			zap.String("transaction_id", txID),
			zap.Error(err))
		return
	}
	if isAdmin {
		return
	}

	tx, err := u.ledger.GetTransaction(ctx, txID)
	if err != nil || tx == nil || tx.Type != model.TransactionUsage ||
		tx.UserID != episode.CreatedBy || tx.EpisodeID != episode.ID {
		u.logger.Warn("skipping refund, linked transaction is not this episode's usage charge",
			zap.String("episode_id", episode.ID),
			zap.String("transaction_id", txID),
			zap.Error(err))
		return
	}

	_, err = u.ledger.Refund(ctx, episode.CreatedBy, episode.ID, episode.PodcastID, "episode processing failed")
	if err != nil {
		u.logger.Error("CRITICAL: refund failed, manual intervention required",
			zap.String("episode_id", episode.ID),
			zap.String("user_id", episode.CreatedBy),
			zap.String("transaction_id", txID),
			zap.Error(err))
		return
	}
	if u.metrics != nil {
		u.metrics.CreditRefunded()
	}
}

// TrackImageGenerationError merges an image failure note into the episode
// metadata without touching status. Image failures are soft: the episode
// stays at its successful state.
func (u *StateUpdater) TrackImageGenerationError(ctx context.Context, episodeID string, cause error) error {
	episode, err := u.load(ctx, episodeID)
	if err != nil {
		return err
	}

	metadata := episode.Metadata
	metadata.ImageGenerationError = cause.Error()
	metadata.ImageErrorAt = time.Now().UTC().Format(time.RFC3339)

	metadataJSON := metadata.Encode()
	err = u.dao.Update(ctx, episodeID, repository.EpisodeUpdate{Metadata: &metadataJSON})
	if err != nil {
		return apperrors.Wrapf(err, "failed to record image error for episode %s", episodeID)
	}

	u.logger.Warn("image generation error recorded",
		zap.String("episode_id", episodeID),
		zap.Error(cause))
	return nil
}

// LinkCreditTransaction stores the transaction id of the deduction that paid
// for this episode so a later failure can be compensated.
func (u *StateUpdater) LinkCreditTransaction(ctx context.Context, episodeID, transactionID string) error {
	episode, err := u.load(ctx, episodeID)
	if err != nil {
		return err
	}

	metadata := episode.Metadata
	metadata.CreditTransactionID = transactionID

	metadataJSON := metadata.Encode()
	err = u.dao.Update(ctx, episodeID, repository.EpisodeUpdate{Metadata: &metadataJSON})
	if err != nil {
		return apperrors.Wrapf(err, "failed to link transaction for episode %s", episodeID)
	}
	return nil
}

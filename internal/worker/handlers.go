package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"podforge/internal/app/credits"
	apperrors "podforge/internal/app/errors"
	"podforge/internal/app/model"
	"podforge/internal/app/pipeline"
	"podforge/internal/app/repository"
	"podforge/pkg/tasks"
)

// contentWaiter blocks until the ingestion job has produced the episode's
// content bundle. Satisfied by *content.Fetcher.
type contentWaiter interface {
	FetchWithRetry(ctx context.Context, podcastID, episodeID, customLocation string) (*model.ContentBundle, error)
}

// creditCharger is the ledger surface the worker charges through. Satisfied
// by *credits.Ledger.
type creditCharger interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	Deduct(ctx context.Context, userID, episodeID, podcastID string) (*credits.OperationResult, error)
}

// failureMarker is the lifecycle surface for the worker's failure path.
// Satisfied by *episode.StateUpdater.
type failureMarker interface {
	MarkFailed(ctx context.Context, episodeID string, cause error) error
	LinkCreditTransaction(ctx context.Context, episodeID, transactionID string) error
}

// orchestratorRunner runs the pipeline. Satisfied by *pipeline.Orchestrator.
type orchestratorRunner interface {
	ProcessCompletedEpisode(ctx context.Context, podcastID, episodeID string, opts pipeline.Options) *pipeline.Result
}

// TaskHandler consumes episode post-processing tasks. It owns everything the
// orchestrator deliberately does not: the credit deduction before the run,
// the run lock, and marking the episode failed (which triggers the
// compensating refund) when the run does not succeed.
type TaskHandler struct {
	episodes     repository.EpisodeDAO
	content      contentWaiter
	ledger       creditCharger
	updater      failureMarker
	orchestrator orchestratorRunner
	locker       pipeline.Locker
	logger       *zap.Logger
}

// NewTaskHandler creates the worker task handler
func NewTaskHandler(
	episodes repository.EpisodeDAO,
	content contentWaiter,
	ledger creditCharger,
	updater failureMarker,
	orchestrator orchestratorRunner,
	locker pipeline.Locker,
	logger *zap.Logger,
) *TaskHandler {
	return &TaskHandler{
		episodes:     episodes,
		content:      content,
		ledger:       ledger,
		updater:      updater,
		orchestrator: orchestrator,
		locker:       locker,
		logger:       logger,
	}
}

// HandleEpisodePostProcessTask charges for and runs the pipeline for one
// episode. Permanent failures are wrapped with asynq.SkipRetry; everything
// else is returned as-is so asynq's retry policy applies.
func (h *TaskHandler) HandleEpisodePostProcessTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.EpisodePostProcessPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := h.logger.With(
		zap.String("podcast_id", p.PodcastID),
		zap.String("episode_id", p.EpisodeID))

	episode, err := h.episodes.GetByID(ctx, p.EpisodeID)
	if err != nil {
		return apperrors.Wrapf(err, "failed to load episode %s", p.EpisodeID)
	}
	if episode == nil {
		return fmt.Errorf("episode %s not found: %w", p.EpisodeID, asynq.SkipRetry)
	}
	if episode.Status.IsTerminal() {
		logger.Info("episode already terminal, nothing to do",
			zap.String("status", string(episode.Status)))
		return nil
	}

	acquired, err := h.locker.Acquire(ctx, p.EpisodeID)
	if err != nil {
		return err
	}
	if !acquired {
		logger.Info("another run holds the episode lock, skipping")
		return nil
	}
	defer func() {
		if err := h.locker.Release(ctx, p.EpisodeID); err != nil {
			logger.Warn("failed to release episode lock", zap.Error(err))
		}
	}()

	if err := h.chargeForRun(ctx, logger, episode); err != nil {
		return err
	}

	// the ingestion job is eventually consistent; wait for the bundle
	// before burning provider calls on an episode with no content
	if _, err := h.content.FetchWithRetry(ctx, p.PodcastID, p.EpisodeID, ""); err != nil {
		logger.Error("content bundle never became available", zap.Error(err))
		h.markFailed(ctx, logger, p.EpisodeID, err)
		return fmt.Errorf("content unavailable for episode %s: %w", p.EpisodeID, asynq.SkipRetry)
	}

	result := h.orchestrator.ProcessCompletedEpisode(ctx, p.PodcastID, p.EpisodeID, pipeline.Options{
		SkipTitle:   p.SkipTitle,
		SkipSummary: p.SkipSummary,
		SkipImage:   p.SkipImage,
	})
	if !result.Success {
		h.markFailed(ctx, logger, p.EpisodeID, apperrors.New(result.Message))
		return fmt.Errorf("episode %s processing failed: %s: %w", p.EpisodeID, result.Message, asynq.SkipRetry)
	}

	logger.Info("episode post-processing task complete")
	return nil
}

// chargeForRun deducts the episode cost unless the owner is an admin, and
// links the usage transaction into episode metadata so a later MarkFailed
// can find and compensate it.
func (h *TaskHandler) chargeForRun(ctx context.Context, logger *zap.Logger, episode *model.Episode) error {
	if episode.CreatedBy == "" {
		return nil
	}

	isAdmin, err := h.ledger.IsAdmin(ctx, episode.CreatedBy)
	if err != nil {
		return apperrors.Wrap(err, "admin check failed")
	}
	if isAdmin {
		logger.Info("admin-owned episode, skipping credit deduction",
			zap.String("user_id", episode.CreatedBy))
		return nil
	}

	deducted, err := h.ledger.Deduct(ctx, episode.CreatedBy, episode.ID, episode.PodcastID)
	if err != nil {
		return apperrors.Wrap(err, "credit deduction failed")
	}
	if !deducted.Success {
		logger.Info("insufficient credits, not processing",
			zap.String("user_id", episode.CreatedBy),
			zap.Int64("available", deducted.NewBalance))
		return fmt.Errorf("insufficient credits for user %s: %w", episode.CreatedBy, asynq.SkipRetry)
	}

	if err := h.updater.LinkCreditTransaction(ctx, episode.ID, deducted.TransactionID); err != nil {
		// the charge stands; without the linkage MarkFailed cannot refund,
		// so surface this loudly
		logger.Error("CRITICAL: failed to link credit transaction to episode",
			zap.String("transaction_id", deducted.TransactionID),
			zap.Error(err))
	}
	return nil
}

func (h *TaskHandler) markFailed(ctx context.Context, logger *zap.Logger, episodeID string, cause error) {
	if err := h.updater.MarkFailed(ctx, episodeID, cause); err != nil {
		logger.Error("failed to mark episode failed", zap.Error(err))
	}
}

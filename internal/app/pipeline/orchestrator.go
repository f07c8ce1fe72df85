package pipeline

import (
	"context"

	"go.uber.org/zap"

	"podforge/internal/app/generation"
	"podforge/internal/app/model"
	"podforge/internal/app/repository"
	transcriptpkg "podforge/internal/app/transcript"
)

// Options controls which stages of a pipeline run are performed. Skipped
// text fields are persisted as empty strings, not left untouched.
type Options struct {
	SkipTitle   bool
	SkipSummary bool
	SkipImage   bool
}

// Result is the orchestrator's in-process outcome value. Message is safe to
// surface to users; diagnostic detail goes to the log only.
type Result struct {
	Success bool
	Message string
	Episode *model.Episode
}

// transcriptSource abstracts transcript retrieval for tests. Satisfied by
// *transcript.Retriever.
type transcriptSource interface {
	FetchTranscript(ctx context.Context, podcastID, episodeID string) (string, error)
}

// textGenerator is the generation surface the orchestrator drives. Satisfied
// by *generation.Generator.
type textGenerator interface {
	GenerateTitleAndSummary(ctx context.Context, transcript string, titleOpts, summaryOpts generation.TextOptions) (*generation.TitleAndSummary, error)
}

// summaryPersister is the lifecycle surface for the summary stage. Satisfied
// by *episode.StateUpdater.
type summaryPersister interface {
	UpdateWithSummary(ctx context.Context, episodeID, title, summary string) error
	MarkProcessed(ctx context.Context, episodeID string) error
}

// imageStage runs the cover-image stage. Satisfied by *image.Pipeline.
type imageStage interface {
	GenerateEpisodeImage(ctx context.Context, episodeID, podcastID, summary, userID string) bool
}

// Orchestrator sequences the post-processing pipeline for one episode:
// transcript retrieval, title/summary generation, persistence and the image
// stage. It does not own credit deduction or failure marking; the caller
// that charged for the run handles both around it.
type Orchestrator struct {
	episodes    repository.EpisodeDAO
	transcripts transcriptSource
	generator   textGenerator
	updater     summaryPersister
	images      imageStage
	logger      *zap.Logger
	metrics     *Metrics

	transcriptMaxLength int
}

// NewOrchestrator creates the pipeline orchestrator
func NewOrchestrator(
	episodes repository.EpisodeDAO,
	transcripts transcriptSource,
	generator textGenerator,
	updater summaryPersister,
	images imageStage,
	logger *zap.Logger,
	metrics *Metrics,
	transcriptMaxLength int,
) *Orchestrator {
	return &Orchestrator{
		episodes:            episodes,
		transcripts:         transcripts,
		generator:           generator,
		updater:             updater,
		images:              images,
		logger:              logger,
		metrics:             metrics,
		transcriptMaxLength: transcriptMaxLength,
	}
}

func failure(message string) *Result {
	return &Result{Success: false, Message: message}
}

// ProcessCompletedEpisode runs the full pipeline for one episode. Failures
// before the image stage abort the run with a non-throwing failure result;
// the image stage handles its own failures internally and never fails the
// run.
func (o *Orchestrator) ProcessCompletedEpisode(ctx context.Context, podcastID, episodeID string, opts Options) *Result {
	logger := o.logger.With(
		zap.String("podcast_id", podcastID),
		zap.String("episode_id", episodeID))
	logger.Info("starting episode post-processing")

	episode, err := o.episodes.GetByID(ctx, episodeID)
	if err != nil {
		logger.Error("episode lookup failed", zap.Error(err))
		o.metrics.EpisodeFailed()
		return failure("episode could not be loaded")
	}
	if episode == nil {
		logger.Warn("episode not found")
		o.metrics.EpisodeFailed()
		return failure("episode not found")
	}
	if episode.PodcastID == "" || episode.PodcastID != podcastID {
		logger.Warn("episode has no matching podcast linkage",
			zap.String("episode_podcast_id", episode.PodcastID))
		o.metrics.EpisodeFailed()
		return failure("episode is not linked to this podcast")
	}

	transcript, err := o.transcripts.FetchTranscript(ctx, podcastID, episodeID)
	if err != nil {
		logger.Error("transcript retrieval failed", zap.Error(err))
		o.metrics.EpisodeFailed()
		return failure("transcript is not available")
	}
	transcript = transcriptpkg.Preprocess(transcript, o.transcriptMaxLength)

	language := episode.Language
	if language == "" {
		language = generation.DefaultLanguage
	}

	title, summary := "", ""
	if !opts.SkipTitle || !opts.SkipSummary {
		generated, err := o.generator.GenerateTitleAndSummary(ctx, transcript,
			generation.TextOptions{Language: language},
			generation.TextOptions{Language: language})
		if err != nil {
			logger.Error("title and summary generation failed", zap.Error(err))
			o.metrics.EpisodeFailed()
			return failure("title and summary generation failed")
		}
		if !opts.SkipTitle {
			title = generated.Title
		}
		if !opts.SkipSummary {
			summary = generated.Summary
		}
	}

	if err := o.updater.UpdateWithSummary(ctx, episodeID, title, summary); err != nil {
		logger.Error("failed to persist summary", zap.Error(err))
		o.metrics.EpisodeFailed()
		return failure("episode update failed")
	}

	if opts.SkipImage {
		if err := o.updater.MarkProcessed(ctx, episodeID); err != nil {
			logger.Error("failed to mark episode processed", zap.Error(err))
			o.metrics.EpisodeFailed()
			return failure("episode update failed")
		}
	} else {
		// soft-failure stage: handles its own errors, never aborts the run
		if o.images.GenerateEpisodeImage(ctx, episodeID, podcastID, summary, episode.CreatedBy) {
			o.metrics.ImageGenerated()
		} else {
			o.metrics.ImageSkipped()
		}
	}

	updated, err := o.episodes.GetByID(ctx, episodeID)
	if err != nil || updated == nil {
		updated = episode
	}

	logger.Info("episode post-processing complete",
		zap.String("status", string(updated.Status)))
	o.metrics.EpisodeProcessed()
	return &Result{Success: true, Message: "episode processed", Episode: updated}
}

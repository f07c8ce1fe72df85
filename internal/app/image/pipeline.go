package image

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"podforge/internal/app/api/provider"
	"podforge/internal/app/repository"
	"podforge/internal/app/storage"
)

// promptGenerator is the slice of the text generator the image stage needs.
// Satisfied by *generation.Generator.
type promptGenerator interface {
	GenerateImagePrompt(ctx context.Context, summary, title string) string
	GenerateImage(ctx context.Context, description string) (*provider.ImageResponse, error)
}

// stateUpdater is the episode lifecycle surface the image stage drives.
// Satisfied by *episode.StateUpdater.
type stateUpdater interface {
	MarkPublished(ctx context.Context, episodeID, coverImageURL string) error
	TrackImageGenerationError(ctx context.Context, episodeID string, cause error) error
}

// Pipeline runs the cover-image stage: prompt enhancement, image generation,
// upload and publish. Every failure in here is soft: the episode is still
// marked complete, with the error traced into its metadata.
type Pipeline struct {
	generator promptGenerator
	store     storage.ObjectStore
	episodes  repository.EpisodeDAO
	updater   stateUpdater
	logger    *zap.Logger
}

// NewPipeline creates the image pipeline
func NewPipeline(generator promptGenerator, store storage.ObjectStore, episodes repository.EpisodeDAO, updater stateUpdater, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		generator: generator,
		store:     store,
		episodes:  episodes,
		updater:   updater,
		logger:    logger,
	}
}

// GenerateEpisodeImage generates and persists a cover image for the episode,
// then marks it published. Returns true only when an image was generated and
// stored. A provider that returns no image bytes, and any error along the
// way, still publishes the episode: cover art is optional.
func (p *Pipeline) GenerateEpisodeImage(ctx context.Context, episodeID, podcastID, summary, userID string) bool {
	title := ""
	episode, err := p.episodes.GetByID(ctx, episodeID)
	if err != nil {
		p.logger.Warn("episode lookup failed, generating image without title context",
			zap.String("episode_id", episodeID),
			zap.Error(err))
	} else if episode != nil {
		title = episode.Title
	}

	description := p.generator.GenerateImagePrompt(ctx, summary, title)

	resp, err := p.generator.GenerateImage(ctx, description)
	if err != nil {
		p.recordFailure(ctx, episodeID, err)
		return false
	}

	if resp == nil || len(resp.ImageData) == 0 {
		p.logger.Info("provider returned no image bytes, publishing without cover",
			zap.String("episode_id", episodeID))
		p.publish(ctx, episodeID, "")
		return false
	}

	key := storage.ImageKey(podcastID, episodeID, freshImageFilename(resp.MimeType))
	url, err := p.store.PutBytes(ctx, key, resp.ImageData, resp.MimeType)
	if err != nil {
		p.recordFailure(ctx, episodeID, err)
		return false
	}

	p.logger.Info("cover image stored",
		zap.String("episode_id", episodeID),
		zap.String("key", key),
		zap.Int("bytes", len(resp.ImageData)))

	p.publish(ctx, episodeID, url)
	return true
}

func (p *Pipeline) publish(ctx context.Context, episodeID, coverURL string) {
	if err := p.updater.MarkPublished(ctx, episodeID, coverURL); err != nil {
		p.logger.Error("failed to mark episode published after image stage",
			zap.String("episode_id", episodeID),
			zap.Error(err))
	}
}

// recordFailure traces the error into episode metadata and still publishes.
// Image failure must never fail the episode.
func (p *Pipeline) recordFailure(ctx context.Context, episodeID string, cause error) {
	p.logger.Warn("image generation failed",
		zap.String("episode_id", episodeID),
		zap.Error(cause))

	if err := p.updater.TrackImageGenerationError(ctx, episodeID, cause); err != nil {
		p.logger.Error("failed to record image error",
			zap.String("episode_id", episodeID),
			zap.Error(err))
	}
	p.publish(ctx, episodeID, "")
}

// freshImageFilename derives a collision-free filename with an extension
// matching the mime type
func freshImageFilename(mimeType string) string {
	ext := "png"
	if idx := strings.Index(mimeType, "/"); idx >= 0 && idx+1 < len(mimeType) {
		ext = mimeType[idx+1:]
	}
	return fmt.Sprintf("cover-%s.%s", uuid.New().String(), ext)
}

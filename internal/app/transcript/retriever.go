package transcript

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "podforge/internal/app/errors"
	"podforge/internal/app/storage"
)

// DefaultMaxRetries is the transcript fetch attempt budget
const DefaultMaxRetries = 3

// Retriever assembles an episode's transcript from its ordered parts in the
// object store. The transcription job writes parts independently, so a short
// bounded retry covers the window where nothing has landed yet. The policy
// here is simple exponential backoff with no cap, distinct from the content
// fetcher's.
type Retriever struct {
	store      storage.ObjectStore
	logger     *zap.Logger
	maxRetries int

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetriever creates a transcript retriever. maxRetries <= 0 selects the
// default of 3 attempts.
func NewRetriever(store storage.ObjectStore, logger *zap.Logger, maxRetries int) *Retriever {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Retriever{
		store:      store,
		logger:     logger,
		maxRetries: maxRetries,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// FetchTranscript retrieves and assembles the transcript, retrying with
// exponential backoff. An empty assembly counts as a failed attempt. After
// exhaustion the error names the attempt count and carries the last failure.
func (r *Retriever) FetchTranscript(ctx context.Context, podcastID, episodeID string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			r.logger.Info("retrying transcript fetch",
				zap.String("episode_id", episodeID),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			if err := r.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		text, err := r.assemble(ctx, podcastID, episodeID)
		if err != nil {
			lastErr = err
			continue
		}
		if text == "" {
			lastErr = apperrors.ErrTranscriptMissing
			continue
		}
		return text, nil
	}

	return "", apperrors.Wrapf(apperrors.ErrRetriesExhausted,
		"transcript for episode %s after %d attempts: %v", episodeID, r.maxRetries, lastErr)
}

// assemble lists the transcript parts, orders them by last-modified (key
// lexical order breaking ties) and concatenates their text.
func (r *Retriever) assemble(ctx context.Context, podcastID, episodeID string) (string, error) {
	prefix := storage.TranscriptPrefix(podcastID, episodeID)

	infos, err := r.store.ListByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", nil
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].LastModified.Equal(infos[j].LastModified) {
			return infos[i].Key < infos[j].Key
		}
		return infos[i].LastModified.Before(infos[j].LastModified)
	})

	var parts []string
	for _, info := range infos {
		text, err := r.store.GetText(ctx, info.Key)
		if err != nil {
			if errors.Is(err, apperrors.ErrObjectNotFound) {
				// part vanished between list and read; skip it
				continue
			}
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n"), nil
}

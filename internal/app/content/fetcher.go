package content

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"podforge/internal/app/config"
	apperrors "podforge/internal/app/errors"
	"podforge/internal/app/model"
	"podforge/internal/app/storage"
)

// Outcome is the three-way result of a single fetch attempt. A bundle that
// is not in the store yet and a bundle that parsed but failed validation are
// different conditions; neither is an error.
type Outcome int

const (
	// OutcomeFound means a valid bundle was retrieved
	OutcomeFound Outcome = iota
	// OutcomeNotReadyYet means the ingestion job has not written the bundle
	OutcomeNotReadyYet
	// OutcomeInvalid means the object exists but is malformed or empty
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotReadyYet:
		return "not_ready_yet"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FetchResult pairs the outcome with the bundle when one was found
type FetchResult struct {
	Outcome Outcome
	Bundle  *model.ContentBundle
}

// RetryCounter counts backoff retries for observability. Satisfied by
// *pipeline.Metrics; nil disables counting.
type RetryCounter interface {
	ContentRetry()
}

// Fetcher retrieves ingested content bundles from the object store. The
// producer is an asynchronous ingestion job, so the store is eventually
// consistent from this side; FetchWithRetry covers the gap with exponential
// backoff.
type Fetcher struct {
	store        storage.ObjectStore
	logger       *zap.Logger
	metrics      RetryCounter
	maxRetries   int
	initialDelay time.Duration
	multiplier   float64
	maxDelay     time.Duration

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a content fetcher with the given retry tuning
func NewFetcher(store storage.ObjectStore, logger *zap.Logger, cfg config.ContentConfig, metrics RetryCounter) *Fetcher {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 6
	}
	if cfg.InitialDelaySec == 0 {
		cfg.InitialDelaySec = 10
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 2
	}
	if cfg.MaxDelaySec == 0 {
		cfg.MaxDelaySec = 300
	}

	return &Fetcher{
		store:        store,
		logger:       logger,
		metrics:      metrics,
		maxRetries:   cfg.MaxRetries,
		initialDelay: time.Duration(cfg.InitialDelaySec) * time.Second,
		multiplier:   cfg.Multiplier,
		maxDelay:     time.Duration(cfg.MaxDelaySec) * time.Second,
		sleep:        sleepContext,
	}
}

// Fetch performs a single fetch attempt. An explicit custom location is
// tried alone; otherwise the canonical location is tried first and the
// legacy locations are probed in order, first valid parse winning.
func (f *Fetcher) Fetch(ctx context.Context, podcastID, episodeID, customLocation string) (FetchResult, error) {
	if customLocation != "" {
		return f.fetchOne(ctx, customLocation)
	}

	result, err := f.fetchOne(ctx, storage.ContentKey(podcastID, episodeID))
	if err != nil {
		return result, err
	}
	if result.Outcome == OutcomeFound {
		return result, nil
	}

	for _, key := range storage.LegacyContentKeys(podcastID, episodeID) {
		legacy, err := f.fetchOne(ctx, key)
		if err != nil {
			return legacy, err
		}
		if legacy.Outcome == OutcomeFound {
			f.logger.Info("content bundle found at legacy location",
				zap.String("episode_id", episodeID),
				zap.String("key", key))
			return legacy, nil
		}
	}

	return result, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, key string) (FetchResult, error) {
	raw, err := f.store.GetText(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrObjectNotFound) {
			return FetchResult{Outcome: OutcomeNotReadyYet}, nil
		}
		return FetchResult{Outcome: OutcomeNotReadyYet}, err
	}

	var bundle model.ContentBundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		f.logger.Warn("content bundle failed to parse",
			zap.String("key", key),
			zap.Error(err))
		return FetchResult{Outcome: OutcomeInvalid}, nil
	}

	if !bundle.IsValid() {
		return FetchResult{Outcome: OutcomeInvalid}, nil
	}

	return FetchResult{Outcome: OutcomeFound, Bundle: &bundle}, nil
}

// FetchWithRetry fetches with exponential backoff until a valid bundle
// appears or attempts are exhausted. The first attempt is immediate; up to
// maxRetries further attempts follow, waiting initialDelay * multiplier^n
// (capped at maxDelay) before each. A missing bundle retries the same as a
// transient store error.
func (f *Fetcher) FetchWithRetry(ctx context.Context, podcastID, episodeID, customLocation string) (*model.ContentBundle, error) {
	var lastErr error
	delay := f.initialDelay

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			if f.metrics != nil {
				f.metrics.ContentRetry()
			}
			f.logger.Info("waiting for content bundle",
				zap.String("episode_id", episodeID),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay = time.Duration(float64(delay) * f.multiplier)
			if delay > f.maxDelay {
				delay = f.maxDelay
			}
		}

		result, err := f.Fetch(ctx, podcastID, episodeID, customLocation)
		if err != nil {
			lastErr = err
			continue
		}
		if result.Outcome == OutcomeFound {
			return result.Bundle, nil
		}
		if result.Outcome == OutcomeInvalid {
			lastErr = apperrors.Wrapf(apperrors.ErrContentNotReady, "bundle invalid for episode %s", episodeID)
			continue
		}
		lastErr = apperrors.ErrContentNotReady
	}

	return nil, apperrors.Wrapf(apperrors.ErrRetriesExhausted,
		"content bundle for episode %s after %d attempts: %v", episodeID, f.maxRetries+1, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

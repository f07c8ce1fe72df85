package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"podforge/internal/app/config"
	apperrors "podforge/internal/app/errors"
	"podforge/internal/app/model"
	"podforge/internal/app/storage"
)

type countingRetryCounter struct {
	retries int
}

func (c *countingRetryCounter) ContentRetry() { c.retries++ }

func newTestFetcher(store storage.ObjectStore, maxRetries int) (*Fetcher, *[]time.Duration) {
	fetcher := NewFetcher(store, zap.NewNop(), config.ContentConfig{
		MaxRetries:      maxRetries,
		InitialDelaySec: 10,
		Multiplier:      2,
		MaxDelaySec:     300,
	}, nil)

	var delays []time.Duration
	fetcher.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return fetcher, &delays
}

func TestBundleValidation(t *testing.T) {
	valid := &model.ContentBundle{Results: map[string][]model.ChannelMessage{
		"chA": {{Text: "hello"}},
	}}
	assert.True(t, valid.IsValid())

	noChannels := &model.ContentBundle{Results: map[string][]model.ChannelMessage{}}
	assert.False(t, noChannels.IsValid())

	emptyChannel := &model.ContentBundle{Results: map[string][]model.ChannelMessage{
		"chA": {},
	}}
	assert.False(t, emptyChannel.IsValid())
}

func TestFetch_Canonical(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryObjectStore()
	store.PutText(storage.ContentKey("pod-1", "ep-1"), `{"results":{"chA":[{"text":"hello"}]}}`)

	fetcher, _ := newTestFetcher(store, 0)
	result, err := fetcher.Fetch(ctx, "pod-1", "ep-1", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, result.Outcome)
	require.NotNil(t, result.Bundle)
	assert.Equal(t, "hello", result.Bundle.Results["chA"][0].Text)
}

func TestFetch_LegacyFallback(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryObjectStore()
	legacy := storage.LegacyContentKeys("pod-1", "ep-1")
	store.PutText(legacy[1], `{"results":{"chA":[{"text":"old layout"}]}}`)

	fetcher, _ := newTestFetcher(store, 0)
	result, err := fetcher.Fetch(ctx, "pod-1", "ep-1", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, result.Outcome)
	assert.Equal(t, "old layout", result.Bundle.Results["chA"][0].Text)
}

func TestFetch_CustomLocationOnly(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryObjectStore()
	store.PutText("custom/location.json", `{"results":{"chA":[{"text":"custom"}]}}`)
	// canonical also present, must not be consulted
	store.PutText(storage.ContentKey("pod-1", "ep-1"), `{"results":{"chA":[{"text":"canonical"}]}}`)

	fetcher, _ := newTestFetcher(store, 0)
	result, err := fetcher.Fetch(ctx, "pod-1", "ep-1", "custom/location.json")
	require.NoError(t, err)
	assert.Equal(t, "custom", result.Bundle.Results["chA"][0].Text)
}

func TestFetch_ThreeWayOutcome(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryObjectStore()
	fetcher, _ := newTestFetcher(store, 0)

	// nothing written yet
	result, err := fetcher.Fetch(ctx, "pod-1", "ep-1", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotReadyYet, result.Outcome)

	// malformed JSON
	store.PutText(storage.ContentKey("pod-1", "ep-1"), `{broken`)
	result, err = fetcher.Fetch(ctx, "pod-1", "ep-1", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, result.Outcome)

	// parses but holds no messages
	store.PutText(storage.ContentKey("pod-1", "ep-1"), `{"results":{"chA":[]}}`)
	result, err = fetcher.Fetch(ctx, "pod-1", "ep-1", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, result.Outcome)
}

func TestFetchWithRetry_Exhaustion(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryObjectStore()

	fetcher, delays := newTestFetcher(store, 6)
	_, err := fetcher.FetchWithRetry(ctx, "pod-1", "ep-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRetriesExhausted)

	// 7 attempts total: immediate first try plus 6 backoff waits
	require.Len(t, *delays, 6)
	assert.Equal(t, []time.Duration{
		10 * time.Second, 20 * time.Second, 40 * time.Second,
		80 * time.Second, 160 * time.Second, 300 * time.Second,
	}, *delays)
}

func TestFetchWithRetry_CountsRetries(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryObjectStore()

	counter := &countingRetryCounter{}
	fetcher, _ := newTestFetcher(store, 6)
	fetcher.metrics = counter

	_, err := fetcher.FetchWithRetry(ctx, "pod-1", "ep-1", "")
	require.Error(t, err)

	// one count per backoff wait, the immediate first attempt is free
	assert.Equal(t, 6, counter.retries)
}

func TestFetchWithRetry_EventualSuccess(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryObjectStore()

	fetcher, delays := newTestFetcher(store, 6)
	attempts := 0
	fetcher.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		attempts++
		if attempts == 2 {
			// the ingestion job catches up after two waits
			store.PutText(storage.ContentKey("pod-1", "ep-1"), `{"results":{"chA":[{"text":"late"}]}}`)
		}
		return nil
	}

	bundle, err := fetcher.FetchWithRetry(ctx, "pod-1", "ep-1", "")
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, "late", bundle.Results["chA"][0].Text)
	assert.Len(t, *delays, 2)
}

func TestFetchWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := storage.NewMemoryObjectStore()

	fetcher, _ := newTestFetcher(store, 6)
	fetcher.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := fetcher.FetchWithRetry(ctx, "pod-1", "ep-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

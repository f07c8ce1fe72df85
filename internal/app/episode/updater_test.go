package episode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"podforge/internal/app/credits"
	apperrors "podforge/internal/app/errors"
	"podforge/internal/app/model"
	"podforge/internal/app/repository"
)

// fakeEpisodeDAO keeps episodes in memory and applies partial updates the
// way the real DAOs do
type fakeEpisodeDAO struct {
	episodes  map[string]*model.Episode
	updates   []repository.EpisodeUpdate
	updateErr error
}

func newFakeEpisodeDAO(episodes ...*model.Episode) *fakeEpisodeDAO {
	dao := &fakeEpisodeDAO{episodes: make(map[string]*model.Episode)}
	for _, e := range episodes {
		dao.episodes[e.ID] = e
	}
	return dao
}

func (f *fakeEpisodeDAO) Close() error { return nil }

func (f *fakeEpisodeDAO) GetByID(ctx context.Context, id string) (*model.Episode, error) {
	e, ok := f.episodes[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEpisodeDAO) GetByPodcast(ctx context.Context, podcastID string) ([]model.Episode, error) {
	var out []model.Episode
	for _, e := range f.episodes {
		if e.PodcastID == podcastID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEpisodeDAO) Update(ctx context.Context, id string, update repository.EpisodeUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, update)

	e := f.episodes[id]
	if update.Title != nil {
		e.Title = *update.Title
	}
	if update.Description != nil {
		e.Description = *update.Description
	}
	if update.Status != nil {
		e.Status = *update.Status
	}
	if update.CoverImage != nil {
		e.CoverImage = *update.CoverImage
	}
	if update.Metadata != nil {
		m, err := model.ParseEpisodeMetadata(*update.Metadata)
		if err != nil {
			return err
		}
		e.Metadata = m
	}
	if update.PublishedAt != nil {
		e.PublishedAt = update.PublishedAt
	}
	return nil
}

// fakeRefundLedger records refund calls
type fakeRefundLedger struct {
	admins       map[string]bool
	transactions map[string]*model.CreditTransaction

	refundCalls []string
	refundErr   error
}

func newFakeRefundLedger() *fakeRefundLedger {
	return &fakeRefundLedger{
		admins:       make(map[string]bool),
		transactions: make(map[string]*model.CreditTransaction),
	}
}

func (f *fakeRefundLedger) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return f.admins[userID], nil
}

func (f *fakeRefundLedger) GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error) {
	return f.transactions[id], nil
}

func (f *fakeRefundLedger) Refund(ctx context.Context, userID, episodeID, podcastID, reason string) (*credits.OperationResult, error) {
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refundCalls = append(f.refundCalls, episodeID)
	return &credits.OperationResult{Success: true}, nil
}

func pendingEpisode() *model.Episode {
	return &model.Episode{
		ID:          "ep-1",
		PodcastID:   "pod-1",
		CreatedBy:   "user-1",
		Status:      model.StatusPending,
		Description: "author-written description",
	}
}

func newTestUpdater(dao *fakeEpisodeDAO, ledger *fakeRefundLedger) *StateUpdater {
	return NewStateUpdater(dao, ledger, zap.NewNop(), nil)
}

type countingRefunds struct {
	refunds int
}

func (c *countingRefunds) CreditRefunded() { c.refunds++ }

func TestUpdateWithSummary(t *testing.T) {
	dao := newFakeEpisodeDAO(pendingEpisode())
	updater := newTestUpdater(dao, newFakeRefundLedger())

	err := updater.UpdateWithSummary(context.Background(), "ep-1", "Great Title", "Great summary.")
	require.NoError(t, err)

	e := dao.episodes["ep-1"]
	assert.Equal(t, "Great Title", e.Title)
	assert.Equal(t, "Great summary.", e.Description)
	assert.Equal(t, model.StatusSummaryCompleted, e.Status)
	// pre-pipeline description is backed up before being overwritten
	assert.Equal(t, "author-written description", e.Metadata.OriginalDescription)
}

func TestUpdateWithSummary_KeepsExistingBackup(t *testing.T) {
	e := pendingEpisode()
	e.Metadata.OriginalDescription = "first backup"
	dao := newFakeEpisodeDAO(e)
	updater := newTestUpdater(dao, newFakeRefundLedger())

	require.NoError(t, updater.UpdateWithSummary(context.Background(), "ep-1", "T", "S"))
	assert.Equal(t, "first backup", dao.episodes["ep-1"].Metadata.OriginalDescription)
}

func TestUpdateWithSummary_EpisodeMissing(t *testing.T) {
	updater := newTestUpdater(newFakeEpisodeDAO(), newFakeRefundLedger())

	err := updater.UpdateWithSummary(context.Background(), "nope", "T", "S")
	assert.ErrorIs(t, err, apperrors.ErrEpisodeNotFound)
}

func TestMarkPublished(t *testing.T) {
	dao := newFakeEpisodeDAO(pendingEpisode())
	updater := newTestUpdater(dao, newFakeRefundLedger())

	err := updater.MarkPublished(context.Background(), "ep-1", "https://store/cover.png")
	require.NoError(t, err)

	e := dao.episodes["ep-1"]
	assert.Equal(t, model.StatusPublished, e.Status)
	assert.Equal(t, "https://store/cover.png", e.CoverImage)
	require.NotNil(t, e.PublishedAt)
}

func TestMarkPublished_WithoutCover(t *testing.T) {
	dao := newFakeEpisodeDAO(pendingEpisode())
	updater := newTestUpdater(dao, newFakeRefundLedger())

	require.NoError(t, updater.MarkPublished(context.Background(), "ep-1", ""))

	e := dao.episodes["ep-1"]
	assert.Equal(t, model.StatusPublished, e.Status)
	assert.Empty(t, e.CoverImage)
	assert.NotNil(t, e.PublishedAt)
}

func TestMarkFailed_RefundsChargedUser(t *testing.T) {
	e := pendingEpisode()
	e.Metadata.CreditTransactionID = "tx-1"
	dao := newFakeEpisodeDAO(e)

	ledger := newFakeRefundLedger()
	ledger.transactions["tx-1"] = &model.CreditTransaction{
		ID: "tx-1", UserID: "user-1", EpisodeID: "ep-1", Type: model.TransactionUsage,
	}
	counter := &countingRefunds{}
	updater := NewStateUpdater(dao, ledger, zap.NewNop(), counter)

	err := updater.MarkFailed(context.Background(), "ep-1", apperrors.New("boom"))
	require.NoError(t, err)

	assert.Equal(t, model.StatusFailed, dao.episodes["ep-1"].Status)
	assert.Contains(t, dao.episodes["ep-1"].Description, "boom")
	assert.Equal(t, []string{"ep-1"}, ledger.refundCalls)
	assert.Equal(t, 1, counter.refunds)
}

func TestMarkFailed_AdminExemption(t *testing.T) {
	e := pendingEpisode()
	e.Metadata.CreditTransactionID = "tx-1"
	dao := newFakeEpisodeDAO(e)

	ledger := newFakeRefundLedger()
	ledger.admins["user-1"] = true
	ledger.transactions["tx-1"] = &model.CreditTransaction{
		ID: "tx-1", UserID: "user-1", EpisodeID: "ep-1", Type: model.TransactionUsage,
	}
	updater := newTestUpdater(dao, ledger)

	require.NoError(t, updater.MarkFailed(context.Background(), "ep-1", apperrors.New("boom")))
	assert.Equal(t, model.StatusFailed, dao.episodes["ep-1"].Status)
	assert.Empty(t, ledger.refundCalls)
}

func TestMarkFailed_NoTransactionLinkage(t *testing.T) {
	dao := newFakeEpisodeDAO(pendingEpisode())
	ledger := newFakeRefundLedger()
	updater := newTestUpdater(dao, ledger)

	require.NoError(t, updater.MarkFailed(context.Background(), "ep-1", apperrors.New("boom")))
	assert.Empty(t, ledger.refundCalls)
}

func TestMarkFailed_StaleTransactionLinkage(t *testing.T) {
	// metadata points at a transaction the ledger has no usage row for
	e := pendingEpisode()
	e.Metadata.CreditTransactionID = "tx-gone"
	dao := newFakeEpisodeDAO(e)
	ledger := newFakeRefundLedger()
	updater := newTestUpdater(dao, ledger)

	require.NoError(t, updater.MarkFailed(context.Background(), "ep-1", apperrors.New("boom")))
	assert.Empty(t, ledger.refundCalls)
}

func TestMarkFailed_ForeignEpisodeTransaction(t *testing.T) {
	// metadata points at a usage charge that paid for a different episode
	e := pendingEpisode()
	e.Metadata.CreditTransactionID = "tx-other"
	dao := newFakeEpisodeDAO(e)

	ledger := newFakeRefundLedger()
	ledger.transactions["tx-other"] = &model.CreditTransaction{
		ID: "tx-other", UserID: "user-1", EpisodeID: "ep-2", Type: model.TransactionUsage,
	}
	updater := newTestUpdater(dao, ledger)

	require.NoError(t, updater.MarkFailed(context.Background(), "ep-1", apperrors.New("boom")))
	assert.Equal(t, model.StatusFailed, dao.episodes["ep-1"].Status)
	assert.Empty(t, ledger.refundCalls)
}

func TestMarkFailed_RefundFailureNotPropagated(t *testing.T) {
	e := pendingEpisode()
	e.Metadata.CreditTransactionID = "tx-1"
	dao := newFakeEpisodeDAO(e)

	ledger := newFakeRefundLedger()
	ledger.transactions["tx-1"] = &model.CreditTransaction{
		ID: "tx-1", UserID: "user-1", EpisodeID: "ep-1", Type: model.TransactionUsage,
	}
	ledger.refundErr = apperrors.New("ledger down")
	updater := newTestUpdater(dao, ledger)

	// the status update must survive a refund failure
	require.NoError(t, updater.MarkFailed(context.Background(), "ep-1", apperrors.New("boom")))
	assert.Equal(t, model.StatusFailed, dao.episodes["ep-1"].Status)
}

func TestMarkFailed_TerminalEpisodeUntouched(t *testing.T) {
	e := pendingEpisode()
	e.Status = model.StatusPublished
	dao := newFakeEpisodeDAO(e)
	updater := newTestUpdater(dao, newFakeRefundLedger())

	require.NoError(t, updater.MarkFailed(context.Background(), "ep-1", apperrors.New("late failure")))
	assert.Equal(t, model.StatusPublished, dao.episodes["ep-1"].Status)
	assert.Empty(t, dao.updates)
}

func TestTerminalEpisodeTransitionsDropped(t *testing.T) {
	// a stale pipeline run must not move an episode out of a terminal state
	for _, status := range []model.EpisodeStatus{model.StatusPublished, model.StatusFailed} {
		e := pendingEpisode()
		e.Status = status
		e.Title = "final title"
		dao := newFakeEpisodeDAO(e)
		updater := newTestUpdater(dao, newFakeRefundLedger())
		ctx := context.Background()

		require.NoError(t, updater.UpdateWithSummary(ctx, "ep-1", "stale", "stale"))
		require.NoError(t, updater.MarkProcessed(ctx, "ep-1"))
		require.NoError(t, updater.MarkPublished(ctx, "ep-1", "https://store/stale.png"))

		got := dao.episodes["ep-1"]
		assert.Equal(t, status, got.Status)
		assert.Equal(t, "final title", got.Title)
		assert.Empty(t, dao.updates)
	}
}

func TestTrackImageGenerationError(t *testing.T) {
	e := pendingEpisode()
	e.Status = model.StatusSummaryCompleted
	e.Metadata.OriginalDescription = "backup"
	dao := newFakeEpisodeDAO(e)
	updater := newTestUpdater(dao, newFakeRefundLedger())

	err := updater.TrackImageGenerationError(context.Background(), "ep-1", apperrors.New("image model down"))
	require.NoError(t, err)

	got := dao.episodes["ep-1"]
	// soft failure: status untouched, existing metadata preserved
	assert.Equal(t, model.StatusSummaryCompleted, got.Status)
	assert.Equal(t, "image model down", got.Metadata.ImageGenerationError)
	assert.NotEmpty(t, got.Metadata.ImageErrorAt)
	assert.Equal(t, "backup", got.Metadata.OriginalDescription)
}

func TestLinkCreditTransaction(t *testing.T) {
	dao := newFakeEpisodeDAO(pendingEpisode())
	updater := newTestUpdater(dao, newFakeRefundLedger())

	require.NoError(t, updater.LinkCreditTransaction(context.Background(), "ep-1", "tx-9"))
	assert.Equal(t, "tx-9", dao.episodes["ep-1"].Metadata.CreditTransactionID)
}

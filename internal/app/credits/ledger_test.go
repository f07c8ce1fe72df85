package credits

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"podforge/internal/app/model"
)

// fakeCreditDAO is an in-memory CreditDAO for ledger tests
type fakeCreditDAO struct {
	balances     map[string]int64
	admins       map[string]bool
	transactions []model.CreditTransaction

	insertErr error
}

func newFakeCreditDAO() *fakeCreditDAO {
	return &fakeCreditDAO{
		balances: make(map[string]int64),
		admins:   make(map[string]bool),
	}
}

func (f *fakeCreditDAO) Close() error { return nil }

func (f *fakeCreditDAO) GetBalance(ctx context.Context, userID string) (int64, error) {
	return f.balances[userID], nil
}

func (f *fakeCreditDAO) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return f.admins[userID], nil
}

func (f *fakeCreditDAO) DeductAtomic(ctx context.Context, userID string, amount int64) (int64, bool, error) {
	if f.balances[userID] < amount {
		return 0, false, nil
	}
	f.balances[userID] -= amount
	return f.balances[userID], true, nil
}

func (f *fakeCreditDAO) CreditAtomic(ctx context.Context, userID string, amount int64) (int64, error) {
	f.balances[userID] += amount
	return f.balances[userID], nil
}

func (f *fakeCreditDAO) InsertTransaction(ctx context.Context, tx *model.CreditTransaction) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.transactions = append(f.transactions, *tx)
	return nil
}

func (f *fakeCreditDAO) GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error) {
	for i := range f.transactions {
		if f.transactions[i].ID == id {
			tx := f.transactions[i]
			return &tx, nil
		}
	}
	return nil, nil
}

func (f *fakeCreditDAO) ListTransactionsByUser(ctx context.Context, userID string) ([]model.CreditTransaction, error) {
	var out []model.CreditTransaction
	for _, tx := range f.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func TestCheckCredits(t *testing.T) {
	dao := newFakeCreditDAO()
	dao.balances["user-1"] = 5
	ledger := NewLedger(dao, zap.NewNop())

	result, err := ledger.CheckCredits(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, result.HasEnough)
	assert.Equal(t, int64(5), result.Available)
	assert.Equal(t, EpisodeCost, result.Required)
	assert.Zero(t, result.Deficit)
}

func TestCheckCredits_Insufficient(t *testing.T) {
	dao := newFakeCreditDAO()
	ledger := NewLedger(dao, zap.NewNop())

	result, err := ledger.CheckCredits(context.Background(), "broke-user")
	require.NoError(t, err)
	assert.False(t, result.HasEnough)
	assert.Equal(t, EpisodeCost, result.Deficit)
}

func TestDeduct(t *testing.T) {
	dao := newFakeCreditDAO()
	dao.balances["user-1"] = 3
	ledger := NewLedger(dao, zap.NewNop())

	result, err := ledger.Deduct(context.Background(), "user-1", "ep-1", "pod-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(2), result.NewBalance)
	assert.NotEmpty(t, result.TransactionID)

	require.Len(t, dao.transactions, 1)
	tx := dao.transactions[0]
	assert.Equal(t, model.TransactionUsage, tx.Type)
	assert.Equal(t, -EpisodeCost, tx.Amount)
	assert.Equal(t, int64(2), tx.BalanceAfter)
	assert.Equal(t, "ep-1", tx.EpisodeID)
}

func TestDeduct_Insufficient(t *testing.T) {
	dao := newFakeCreditDAO()
	ledger := NewLedger(dao, zap.NewNop())

	result, err := ledger.Deduct(context.Background(), "broke-user", "ep-1", "pod-1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.TransactionID)

	// no ledger row and no balance change on a rejected deduction
	assert.Empty(t, dao.transactions)
	assert.Zero(t, dao.balances["broke-user"])
}

func TestDeductThenRefund_RestoresBalance(t *testing.T) {
	dao := newFakeCreditDAO()
	dao.balances["user-1"] = 7
	ledger := NewLedger(dao, zap.NewNop())

	deducted, err := ledger.Deduct(context.Background(), "user-1", "ep-1", "pod-1")
	require.NoError(t, err)
	require.True(t, deducted.Success)

	refunded, err := ledger.Refund(context.Background(), "user-1", "ep-1", "pod-1", "processing failed")
	require.NoError(t, err)
	require.True(t, refunded.Success)
	assert.Equal(t, int64(7), refunded.NewBalance)

	// exactly two rows with consistent running balances
	history, err := ledger.ListTransactions(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.TransactionUsage, history[0].Type)
	assert.Equal(t, int64(6), history[0].BalanceAfter)
	assert.Equal(t, model.TransactionRefund, history[1].Type)
	assert.Equal(t, int64(7), history[1].BalanceAfter)
	assert.NotEqual(t, history[0].ID, history[1].ID)
	assert.Contains(t, history[1].Description, "processing failed")
}

func TestGetTransaction(t *testing.T) {
	dao := newFakeCreditDAO()
	dao.balances["user-1"] = 1
	ledger := NewLedger(dao, zap.NewNop())

	deducted, err := ledger.Deduct(context.Background(), "user-1", "ep-1", "pod-1")
	require.NoError(t, err)

	tx, err := ledger.GetTransaction(context.Background(), deducted.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, model.TransactionUsage, tx.Type)

	missing, err := ledger.GetTransaction(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestToExcel(t *testing.T) {
	dao := newFakeCreditDAO()
	dao.balances["user-1"] = 2
	ledger := NewLedger(dao, zap.NewNop())

	_, err := ledger.Deduct(context.Background(), "user-1", "ep-1", "pod-1")
	require.NoError(t, err)
	_, err = ledger.Refund(context.Background(), "user-1", "ep-1", "pod-1", "test")
	require.NoError(t, err)

	history, err := ledger.ListTransactions(context.Background(), "user-1")
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "ledger.xlsx")
	require.NoError(t, ToExcel(history, outputPath))
	assert.FileExists(t, outputPath)
}

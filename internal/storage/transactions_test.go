package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmoss/pocketwatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testTxn(id, created string, amount int64) model.Transaction {
	return model.Transaction{
		ID:          id,
		AccountID:   "acc_1",
		Created:     created,
		Amount:      json.Number(strconv.FormatInt(amount, 10)),
		Currency:    "GBP",
		Description: "NETFLIX.COM",
		Category:    model.CategoryEntertainment,
		Merchant:    &model.Merchant{ID: "merch_netflix", Name: "Netflix"},
	}
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSaveAndGetTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txns := []model.Transaction{
		testTxn("tx_2", "2024-02-15T08:00:00Z", -1599),
		testTxn("tx_1", "2024-01-15T08:00:00Z", -1599),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	got, err := store.GetTransactions(ctx, "acc_1", "")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first regardless of insert order
	assert.Equal(t, "tx_1", got[0].ID)
	assert.Equal(t, "tx_2", got[1].ID)

	amount, err := got[0].MinorUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(-1599), amount)
	assert.Equal(t, "Netflix", got[0].MerchantName())
	assert.Equal(t, model.CategoryEntertainment, got[0].Category)
}

func TestSaveTransactions_ReplacesExistingRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original := testTxn("tx_1", "2024-01-15T08:00:00Z", -1599)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{original}))

	settled := original
	settled.Amount = json.Number("-1699")
	settled.Notes = "price increase"
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{settled}))

	got, err := store.GetTransactions(ctx, "acc_1", "")
	require.NoError(t, err)
	require.Len(t, got, 1)

	amount, err := got[0].MinorUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(-1699), amount)
	assert.Equal(t, "price increase", got[0].Notes)
}

func TestSaveTransactions_SkipsRecordsWithoutID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txns := []model.Transaction{
		testTxn("tx_1", "2024-01-15T08:00:00Z", -1599),
		{AccountID: "acc_1"},
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	count, err := store.CountTransactions(ctx, "acc_1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetTransactions_SinceFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txns := []model.Transaction{
		testTxn("tx_1", "2024-01-15T08:00:00Z", -1599),
		testTxn("tx_2", "2024-02-15T08:00:00Z", -1599),
		testTxn("tx_3", "2024-03-15T08:00:00Z", -1599),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	got, err := store.GetTransactions(ctx, "acc_1", "2024-02-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "tx_2", got[0].ID)
	assert.Equal(t, "tx_3", got[1].ID)
}

func TestGetTransactions_ScopedToAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	other := testTxn("tx_other", "2024-01-15T08:00:00Z", -500)
	other.AccountID = "acc_2"
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTxn("tx_1", "2024-01-15T08:00:00Z", -1599),
		other,
	}))

	got, err := store.GetTransactions(ctx, "acc_1", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tx_1", got[0].ID)
}

func TestGetTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTxn("tx_1", "2024-01-15T08:00:00Z", -1599),
	}))

	got, err := store.GetTransaction(ctx, "tx_1")
	require.NoError(t, err)
	assert.Equal(t, "tx_1", got.ID)
	assert.Equal(t, "merch_netflix", got.CounterpartyID())

	_, err = store.GetTransaction(ctx, "tx_missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestTransactionWithoutMerchantRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txn := testTxn("tx_1", "2024-01-15T08:00:00Z", -250)
	txn.Merchant = nil
	txn.Description = "PRET A MANGER"
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	got, err := store.GetTransaction(ctx, "tx_1")
	require.NoError(t, err)
	assert.Nil(t, got.Merchant)
	assert.Equal(t, "PRET A MANGER", got.Description)
}

func TestSyncCursor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cursor, err := store.GetSyncCursor(ctx, "acc_1")
	require.NoError(t, err)
	assert.Empty(t, cursor)

	require.NoError(t, store.SetSyncCursor(ctx, "acc_1", "tx_100"))
	require.NoError(t, store.SetSyncCursor(ctx, "acc_1", "tx_200"))

	cursor, err = store.GetSyncCursor(ctx, "acc_1")
	require.NoError(t, err)
	assert.Equal(t, "tx_200", cursor)
}

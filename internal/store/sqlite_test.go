package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitle/enrichment-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_ImplementsStore(t *testing.T) {
	var _ Store = newTestSQLiteStore(t)
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

// --- Runs ---

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "companies.xlsx", "Apollo")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "companies.xlsx", got.FileName)
	assert.Equal(t, "Apollo", got.Provider)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Nil(t, got.Summary)
	assert.Empty(t, got.Error)
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_CompleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "a.csv", "Apollo")
	require.NoError(t, err)

	summary := model.BatchSummary{Total: 3, Success: 1, Partial: 1, Error: 1}
	require.NoError(t, st.CompleteRun(ctx, run.ID, summary))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, summary, *got.Summary)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "a.csv", "Apollo")
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, run.ID, "no valid data found in file"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "no valid data found in file", got.Error)
}

func TestSQLite_UpdateMissingRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, st.CompleteRun(ctx, "missing", model.BatchSummary{}), ErrNotFound)
	assert.ErrorIs(t, st.FailRun(ctx, "missing", "x"), ErrNotFound)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"one.csv", "two.csv", "three.csv"} {
		run, err := st.CreateRun(ctx, name, "Apollo")
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, st.CompleteRun(ctx, ids[0], model.BatchSummary{Total: 1, Success: 1}))
	require.NoError(t, st.FailRun(ctx, ids[1], "boom"))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "three.csv", all[0].FileName, "newest first")
	assert.Equal(t, "one.csv", all[2].FileName)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, ids[0], complete[0].ID)

	page, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "two.csv", page[0].FileName)
}

func TestSQLite_ListRuns_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	runs, err := st.ListRuns(context.Background(), RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

// --- Rows ---

func TestSQLite_SaveAndListRows(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "a.csv", "Apollo")
	require.NoError(t, err)

	rows := []model.RunRow{
		{RowIndex: 1, Company: "Beta", Domain: "beta.com", Status: model.RecordStatusError, ErrorMessage: "No organization data found"},
		{RowIndex: 0, Company: "Shopify", Domain: "shopify.com", Status: model.RecordStatusSuccess, ContactCount: 3},
	}
	require.NoError(t, st.SaveRows(ctx, run.ID, rows))

	got, err := st.ListRows(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.RunRow{
		RunID: run.ID, RowIndex: 0, Company: "Shopify", Domain: "shopify.com",
		Status: model.RecordStatusSuccess, ContactCount: 3,
	}, got[0])
	assert.Equal(t, "No organization data found", got[1].ErrorMessage)
	assert.Equal(t, run.ID, got[1].RunID)
}

func TestSQLite_SaveRows_Replaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "a.csv", "Apollo")
	require.NoError(t, err)

	require.NoError(t, st.SaveRows(ctx, run.ID, []model.RunRow{{RowIndex: 0, Status: model.RecordStatusError}}))
	require.NoError(t, st.SaveRows(ctx, run.ID, []model.RunRow{{RowIndex: 0, Status: model.RecordStatusSuccess}}))

	got, err := st.ListRows(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.RecordStatusSuccess, got[0].Status)
}

func TestSQLite_SaveRows_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.SaveRows(context.Background(), "any", nil))
}

func TestSQLite_ListRows_UnknownRun(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.ListRows(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestSQLite_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "vakit:timings:a", []byte(`{"x":1}`), time.Hour))

	data, err := st.Get(ctx, "vakit:timings:a")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(data))
}

func TestSQLite_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.Get(context.Background(), "nonexistent")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k", []byte("old"), time.Hour))
	require.NoError(t, st.Set(ctx, "k", []byte("new"), time.Hour))

	data, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestSQLite_ExpiryAndPrune(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	st := newTestSQLiteStore(t).WithNow(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "old", []byte("1"), time.Hour))
	require.NoError(t, st.Set(ctx, "fresh", []byte("2"), 48*time.Hour))
	require.NoError(t, st.Set(ctx, "pinned", []byte("3"), 0))

	now = now.Add(2 * time.Hour)

	_, err := st.Get(ctx, "old")
	assert.True(t, errors.Is(err, ErrNotFound))

	n, err := st.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = st.Get(ctx, "fresh")
	assert.NoError(t, err)
	_, err = st.Get(ctx, "pinned")
	assert.NoError(t, err)
}

func TestSQLite_Delete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, st.Delete(ctx, "k"))
	require.NoError(t, st.Delete(ctx, "k"))

	_, err := st.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrNotFound))
}

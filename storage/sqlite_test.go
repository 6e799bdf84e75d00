package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteEngine {
	t.Helper()
	engine, err := NewSQLiteEngine(context.Background(), filepath.Join(t.TempDir(), "deq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close(context.Background()) })
	return engine
}

func TestSQLiteEngine_Upsert(t *testing.T) {
	ctx := context.Background()
	engine := newTestSQLite(t)

	require.NoError(t, engine.Set(ctx, "k", "one", 0))
	require.NoError(t, engine.Set(ctx, "k", "two", 0))

	val, ok, err := engine.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", val)
}

func TestSQLiteEngine_Lifetime(t *testing.T) {
	ctx := context.Background()
	engine := newTestSQLite(t)
	now := time.Unix(1_700_000_000, 0)
	engine.now = func() time.Time { return now }

	require.NoError(t, engine.Set(ctx, "k", "v", time.Minute))

	_, ok, err := engine.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, err = engine.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteEngine_PersistsAcrossHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "deq.db")

	first, err := NewSQLiteEngine(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k", "v", 0))
	require.NoError(t, first.Close(ctx))

	second, err := NewSQLiteEngine(ctx, path)
	require.NoError(t, err)
	defer second.Close(ctx)

	val, ok, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestSQLiteEngine_Delete(t *testing.T) {
	ctx := context.Background()
	engine := newTestSQLite(t)

	require.NoError(t, engine.Set(ctx, "k", "v", 0))
	require.NoError(t, engine.Delete(ctx, "k"))
	_, ok, err := engine.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s := New(path)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func TestKeepAndFindRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Keep(ctx, "states", map[string]any{"sequence": "receive", "matched": true}))
	require.NoError(t, s.Keep(ctx, "states", map[string]any{"sequence": "serve", "matched": false}))

	all, err := s.Find(ctx, "states", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	matched, err := s.Find(ctx, "states", map[string]any{"matched": true})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "receive", matched[0]["sequence"])
}

func TestFindOneReturnsFirstMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Keep(ctx, "users", map[string]any{"id": "u1"}))
	require.NoError(t, s.Keep(ctx, "users", map[string]any{"id": "u2"}))

	rec, found, err := s.FindOne(ctx, "users", map[string]any{"id": "u2"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "u2", rec["id"])

	_, found, err = s.FindOne(ctx, "users", map[string]any{"id": "missing"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoseRemovesMatchingRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Keep(ctx, "users", map[string]any{"id": "u1", "active": true}))
	require.NoError(t, s.Keep(ctx, "users", map[string]any{"id": "u2", "active": false}))

	require.NoError(t, s.Lose(ctx, "users", map[string]any{"active": false}))

	remaining, err := s.Find(ctx, "users", nil)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "u1", remaining[0]["id"])
}

func TestSaveAndLoadMemoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.LoadMemory(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	data := map[string]any{"users": map[string]any{"u1": map[string]any{"id": "u1"}}}
	require.NoError(t, s.SaveMemory(ctx, data))

	loaded, err := s.LoadMemory(ctx)
	require.NoError(t, err)
	assert.Contains(t, loaded, "users")
}

func TestSaveMemoryOverwritesPreviousValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveMemory(ctx, map[string]any{"v": 1.0}))
	require.NoError(t, s.SaveMemory(ctx, map[string]any{"v": 2.0}))

	loaded, err := s.LoadMemory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded["v"])
}

func TestSequenceNumbersSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restart.db")
	ctx := context.Background()

	s1 := New(path)
	require.NoError(t, s1.Start(ctx))
	require.NoError(t, s1.Keep(ctx, "states", map[string]any{"n": 1.0}))
	require.NoError(t, s1.Shutdown(ctx))

	s2 := New(path)
	require.NoError(t, s2.Start(ctx))
	require.NoError(t, s2.Keep(ctx, "states", map[string]any{"n": 2.0}))
	defer s2.Shutdown(ctx)

	all, err := s2.Find(ctx, "states", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// These tests exercise Store against a live PostgreSQL instance and are
// skipped unless THOUGHTBOT_TEST_POSTGRES_URL is set, so a plain `go test`
// never requires an external service.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("THOUGHTBOT_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("THOUGHTBOT_TEST_POSTGRES_URL not set, skipping postgres integration test")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestKeepAndFindRoundTrip(t *testing.T) {
	pool := testPool(t)
	s := New(pool)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.Keep(ctx, "states_test", map[string]any{"sequence": "receive"}))
	all, err := s.Find(ctx, "states_test", nil)
	require.NoError(t, err)
	require.NotEmpty(t, all)
}

func TestSaveAndLoadMemoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	s := New(pool)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.SaveMemory(ctx, map[string]any{"k": "v"}))
	loaded, err := s.LoadMemory(ctx)
	require.NoError(t, err)
	require.Equal(t, "v", loaded["k"])
}

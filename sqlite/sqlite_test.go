package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/spewder/sqlite"
	"github.com/stretchr/testify/require"
)

// openDB opens an in-memory database that is closed when the test ends.
func openDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates schema on first open", func(t *testing.T) {
		t.Parallel()

		db := openDB(t)
		ctx := context.Background()

		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crawls").Scan(&n))
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&n))
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB("/nonexistent/path/db.sqlite")
		require.Error(t, db.Open())
	})

	t.Run("enables WAL mode for file-based databases", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(t.TempDir() + "/test.db")
		require.NoError(t, db.Open())
		defer db.Close()

		var journalMode string
		err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		require.Equal(t, "wal", journalMode)
	})

	t.Run("reopening keeps existing data", func(t *testing.T) {
		t.Parallel()

		path := t.TempDir() + "/test.db"
		ctx := context.Background()

		db := sqlite.NewDB(path)
		require.NoError(t, db.Open())
		_, err := db.ExecContext(ctx, `INSERT INTO crawls (id, seed, started_at, finished_at) VALUES ('x', 'https://a.test', '', '')`)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		db = sqlite.NewDB(path)
		require.NoError(t, db.Open())
		defer db.Close()

		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crawls").Scan(&n))
		require.Equal(t, 1, n)
	})
}

package sqlite_test

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/sqlite"
	"github.com/agajdosi/artificial-witness/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"path/filepath"
	"testing"
)

func TestNewDatabase(t *testing.T) {
	tests := []struct {
		name string
		url  func(t *testing.T) string
	}{
		{
			name: "in-memory",
			url:  func(_ *testing.T) string { return ":memory:" },
		},
		{
			name: "file",
			url:  func(t *testing.T) string { return filepath.Join(t.TempDir(), "witness.sqlite") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			db, err := sqlite.NewDatabase(ctx, tt.url(t), testhelpers.NewLogger(io.Discard))
			require.NoError(t, err)
			t.Cleanup(func() {
				require.NoError(t, db.Close())
			})

			_, err = db.ReadWrite.ExecContext(ctx, `INSERT INTO slots (key, value, updated) VALUES ('player', '{}', '')`)
			require.NoError(t, err)

			var value string
			require.NoError(t, db.ReadOnly.GetContext(ctx, &value, `SELECT value FROM slots WHERE key = ?`, "player"))
			require.Equal(t, "{}", value)

			_, err = db.ReadOnly.ExecContext(ctx, `DELETE FROM slots`)
			require.Error(t, err, "read-only pool must reject writes")
		})
	}
}

func TestNewDatabaseIsolatesInMemoryDatabases(t *testing.T) {
	ctx := context.Background()
	logger := testhelpers.NewLogger(io.Discard)
	first, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })
	second, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	_, err = first.ReadWrite.ExecContext(ctx, `INSERT INTO slots (key, value, updated) VALUES ('player', '{}', '')`)
	require.NoError(t, err)

	var count int
	require.NoError(t, second.ReadOnly.GetContext(ctx, &count, `SELECT COUNT(*) FROM slots`))
	require.Zero(t, count)
}

package slotstore_test

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/slotstore"
	"github.com/agajdosi/artificial-witness/internal/sqlite"
	"github.com/agajdosi/artificial-witness/internal/testhelpers"
	"io"
	"testing"
)

// newTestDB opens a database at url and closes it when the test ends.
func newTestDB(t *testing.T, url string) *sqlite.Database {
	t.Helper()
	db, err := sqlite.NewDatabase(context.Background(), url, testhelpers.NewLogger(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// newTestStore creates a slot store backed by a fresh in-memory database.
func newTestStore(t *testing.T) (*slotstore.Store, *sqlite.Database) {
	t.Helper()
	db := newTestDB(t, ":memory:")
	return slotstore.NewStore(db, testhelpers.NewLogger(io.Discard)), db
}

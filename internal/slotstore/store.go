package slotstore

import (
	"context"
	"database/sql"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/sqlite"
	"log/slog"
	"time"
)

// Keys of the well-known slots.
const (
	KeyGame          = "currentGame"
	KeyPlayer        = "player"
	KeyErrorMessage  = "errorMessage"
	KeySelectedModel = "selectedModel"
)

// Store persists slot values as JSON blobs keyed by slot name. There is no cross-slot transactionality.
type Store struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewStore(db *sqlite.Database, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With("source", "SlotStore"),
	}
}

// load returns the persisted blob for key. A missing slot is reported with ok false, not as an error.
func (s *Store) load(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	stmt := `SELECT value FROM slots WHERE key = ?`
	if err := s.db.ReadOnly.GetContext(ctx, &value, stmt, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "select slot", slog.String("key", key))
	}
	return []byte(value), true, nil
}

// save replaces the persisted blob for key.
func (s *Store) save(ctx context.Context, key string, value []byte) error {
	stmt := `INSERT INTO slots (key, value, updated)
VALUES (:key, :value, :updated)
ON CONFLICT (key) DO UPDATE SET value   = excluded.value,
                                updated = excluded.updated`
	params := map[string]any{
		"key":     key,
		"value":   string(value),
		"updated": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if _, err := s.db.ReadWrite.NamedExecContext(ctx, stmt, params); err != nil {
		return errors.Wrap(err, "upsert slot", slog.String("key", key))
	}
	return nil
}

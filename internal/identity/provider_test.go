package identity_test

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/identity"
	"github.com/agajdosi/artificial-witness/internal/models"
	"github.com/agajdosi/artificial-witness/internal/slotstore"
	"github.com/agajdosi/artificial-witness/internal/sqlite"
	"github.com/agajdosi/artificial-witness/internal/testhelpers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"io"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) (*slotstore.Store, *sqlite.Database) {
	t.Helper()
	db, err := sqlite.NewDatabase(context.Background(), ":memory:", testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return slotstore.NewStore(db, testhelpers.NewLogger(io.Discard)), db
}

func TestEnsurePlayer(t *testing.T) {
	ctx := context.Background()
	logger := testhelpers.NewLogger(io.Discard)

	tests := []struct {
		name      string
		persisted string
		wantUUID  string
	}{
		{name: "absent", persisted: "", wantUUID: ""},
		{name: "valid", persisted: `{"UUID":"9b2c1a6e-1111-4a4a-9a9a-123456789abc","Name":"Dupin"}`,
			wantUUID: "9b2c1a6e-1111-4a4a-9a9a-123456789abc"},
		{name: "missing identifier", persisted: `{"Name":"Dupin"}`, wantUUID: ""},
		{name: "blank identifier", persisted: `{"UUID":"  ","Name":""}`, wantUUID: ""},
		{name: "unparsable", persisted: `{"UUID":`, wantUUID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, db := newTestStore(t)
			if tt.persisted != "" {
				_, err := db.ReadWrite.ExecContext(ctx,
					`INSERT INTO slots (key, value, updated) VALUES (?, ?, '')`, slotstore.KeyPlayer, tt.persisted)
				require.NoError(t, err)
			}
			slot := slotstore.Open(ctx, store, slotstore.KeyPlayer, models.Player{})
			provider := identity.NewProvider(slot, logger)

			player := provider.EnsurePlayer(ctx)
			require.True(t, player.Valid())
			if tt.wantUUID != "" {
				require.Equal(t, tt.wantUUID, player.UUID)
				require.Equal(t, "Dupin", player.Name)
			} else {
				_, err := uuid.Parse(player.UUID)
				require.NoError(t, err, "expected a freshly generated UUID")
				require.Empty(t, player.Name)
			}

			// The record on disk is the one returned, corrupted records are overwritten.
			rehydrated := slotstore.Open(ctx, store, slotstore.KeyPlayer, models.Player{})
			require.Equal(t, player, rehydrated.Get())

			// Idempotent.
			require.Equal(t, player, provider.EnsurePlayer(ctx))
			require.Equal(t, player, identity.NewProvider(rehydrated, logger).EnsurePlayer(ctx))
		})
	}
}

func TestEnsurePlayerConcurrent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	slot := slotstore.Open(ctx, store, slotstore.KeyPlayer, models.Player{})
	provider := identity.NewProvider(slot, testhelpers.NewLogger(io.Discard))

	const callers = 10
	players := make([]models.Player, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			players[i] = provider.EnsurePlayer(ctx)
		}(i)
	}
	wg.Wait()

	for _, p := range players {
		require.Equal(t, players[0], p)
	}
	require.Equal(t, uint64(1), slot.Version(), "identifier must be generated once")
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	slot := slotstore.Open(ctx, store, slotstore.KeyPlayer, models.Player{})
	provider := identity.NewProvider(slot, testhelpers.NewLogger(io.Discard))

	original := provider.EnsurePlayer(ctx)
	renamed, err := provider.Rename(ctx, "Dupin")
	require.NoError(t, err)
	require.Equal(t, original.UUID, renamed.UUID)
	require.Equal(t, "Dupin", renamed.Name)
	require.Equal(t, renamed, slot.Get())
}

func TestRenameConcurrent(t *testing.T) {
	tests := []struct {
		name        string
		names       []string
		wantVersion uint64
	}{
		{
			name:        "same name is written once",
			names:       []string{"Dupin", "Dupin", "Dupin", "Dupin", "Dupin", "Dupin"},
			wantVersion: 2,
		},
		{
			name:        "distinct names keep one identifier",
			names:       []string{"Dupin", "Marple", "Poirot", "Holmes"},
			wantVersion: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, _ := newTestStore(t)
			slot := slotstore.Open(ctx, store, slotstore.KeyPlayer, models.Player{})
			provider := identity.NewProvider(slot, testhelpers.NewLogger(io.Discard))

			players := make([]models.Player, len(tt.names))
			errs := make([]error, len(tt.names))
			var wg sync.WaitGroup
			for i, name := range tt.names {
				wg.Add(1)
				go func(i int, name string) {
					defer wg.Done()
					players[i], errs[i] = provider.Rename(ctx, name)
				}(i, name)
			}
			wg.Wait()

			for i, p := range players {
				require.NoError(t, errs[i])
				require.Equal(t, players[0].UUID, p.UUID)
				require.Equal(t, tt.names[i], p.Name)
			}
			final := slot.Get()
			require.Equal(t, players[0].UUID, final.UUID)
			require.Contains(t, tt.names, final.Name)
			require.Equal(t, tt.wantVersion, slot.Version())
		})
	}
}

package identity

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/models"
	"github.com/google/uuid"
	"log/slog"
	"sync"
)

// PlayerSlot is the persisted player identity.
type PlayerSlot interface {
	Get() models.Player
	Set(ctx context.Context, player models.Player) (uint64, error)
}

// Provider guarantees a stable player identifier for the lifetime of the local storage.
type Provider struct {
	slot   PlayerSlot
	logger *slog.Logger
	newID  func() string
	mu     sync.Mutex
}

func NewProvider(slot PlayerSlot, logger *slog.Logger) *Provider {
	return &Provider{
		slot:   slot,
		logger: logger.With("source", "IdentityProvider"),
		newID:  func() string { return uuid.NewString() },
		mu:     sync.Mutex{},
	}
}

// EnsurePlayer returns the persisted player or creates one when it is missing or has no identifier.
//
// Corrupt records never surface as errors: the slot already falls back to an empty player when it cannot parse the
// persisted value, which makes a fresh identity here. A failed write is logged and the new identity is still used.
func (p *Provider) EnsurePlayer(ctx context.Context) models.Player {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureLocked(ctx)
}

// ensureLocked must be called with p.mu held.
func (p *Provider) ensureLocked(ctx context.Context) models.Player {
	player := p.slot.Get()
	if player.Valid() {
		return player
	}

	player = models.Player{UUID: p.newID(), Name: ""}
	if _, err := p.slot.Set(ctx, player); err != nil {
		p.logger.LogAttrs(ctx, slog.LevelError, "could not persist new player", errors.SlogError(err))
	}
	p.logger.LogAttrs(ctx, slog.LevelInfo, "created player", slog.String("player_uuid", player.UUID))
	return player
}

// Rename sets the display name of the player. The identifier never changes.
func (p *Provider) Rename(ctx context.Context, name string) (models.Player, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	player := p.ensureLocked(ctx)
	if player.Name == name {
		return player, nil
	}
	player.Name = name
	if _, err := p.slot.Set(ctx, player); err != nil {
		return player, errors.Wrap(err, "persist player name", slog.String("player_uuid", player.UUID))
	}
	return player, nil
}

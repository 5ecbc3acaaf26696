package slotstore

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/models"
)

// Slots are the named values the client keeps between runs.
type Slots struct {
	Game   *Slot[models.Game]
	Player *Slot[models.Player]
	// ErrorMessage is transient and only signals the current process.
	ErrorMessage *Slot[models.ErrorMessage]
	// SelectedModel is nil until the player picks a model.
	SelectedModel *Slot[*string]
}

// OpenSlots rehydrates all well-known slots from store.
func OpenSlots(ctx context.Context, store *Store) *Slots {
	return &Slots{
		Game:          Open(ctx, store, KeyGame, models.DefaultGame()),
		Player:        Open(ctx, store, KeyPlayer, models.Player{UUID: "", Name: ""}),
		ErrorMessage:  Open(ctx, store, KeyErrorMessage, models.DefaultErrorMessage(), Transient()),
		SelectedModel: Open[*string](ctx, store, KeySelectedModel, nil),
	}
}

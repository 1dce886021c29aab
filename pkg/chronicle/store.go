package chronicle

import (
	"context"

	"github.com/google/uuid"
)

// Store persists chronicle progress per game state on the server side.
type Store interface {
	LoadChronicles(ctx context.Context, gameStateID uuid.UUID) ([]Progress, error)
	SaveChronicles(ctx context.Context, gameStateID uuid.UUID, progress []Progress) error
	Close() error
}

// LoadManager builds a Manager from the progress stored for a game state.
func LoadManager(ctx context.Context, store Store, gameStateID uuid.UUID) (*Manager, error) {
	progress, err := store.LoadChronicles(ctx, gameStateID)
	if err != nil {
		return nil, err
	}
	m := NewManager()
	m.Replace(progress)
	return m, nil
}

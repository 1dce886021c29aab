package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
	"github.com/jwebster45206/chronicle-rpg/pkg/session"
	"github.com/jwebster45206/chronicle-rpg/pkg/state"
	"github.com/jwebster45206/chronicle-rpg/pkg/tilemap"
)

// ErrInvalidFilename is returned for resource names that would escape the
// data directory.
var ErrInvalidFilename = errors.New("invalid resource filename")

// Storage defines a unified interface for all storage operations
// This interface combines game and session persistence (Redis) with resource loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations (Redis-backed)
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Dialogue session operations (Redis-backed)
	SaveSession(ctx context.Context, s *session.Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	AppendTranscript(ctx context.Context, sessionID uuid.UUID, entry session.TranscriptEntry) error
	Transcript(ctx context.Context, sessionID uuid.UUID) ([]session.TranscriptEntry, error)

	// Dialogue documents (filesystem-backed)
	// GetDialogue returns dialogue.ErrResourceNotFound for unknown files
	ListDialogues(ctx context.Context) ([]string, error)
	GetDialogue(ctx context.Context, filename string) (*dialogue.Graph, error)

	// Maps (filesystem-backed)
	// GetMap returns tilemap.ErrMapNotFound for unknown files
	ListMaps(ctx context.Context) ([]string, error)
	GetMap(ctx context.Context, filename string) (*tilemap.Map, error)
}

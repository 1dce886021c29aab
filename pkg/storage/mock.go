package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
	"github.com/jwebster45206/chronicle-rpg/pkg/session"
	"github.com/jwebster45206/chronicle-rpg/pkg/state"
	"github.com/jwebster45206/chronicle-rpg/pkg/tilemap"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu          sync.RWMutex
	gamestates  map[uuid.UUID]*state.GameState
	sessions    map[uuid.UUID]*session.Session
	transcripts map[uuid.UUID][]session.TranscriptEntry
	dialogues   map[string]*dialogue.Graph
	maps        map[string]*tilemap.Map
	pingError   error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates:  make(map[uuid.UUID]*state.GameState),
		sessions:    make(map[uuid.UUID]*session.Session),
		transcripts: make(map[uuid.UUID][]session.TranscriptEntry),
		dialogues:   make(map[string]*dialogue.Graph),
		maps:        make(map[string]*tilemap.Map),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamestates[id] = gs
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gs, exists := m.gamestates[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return gs, nil
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s *session.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *s
	m.sessions[s.ID] = &saved
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, exists := m.sessions[id]
	if !exists {
		return nil, nil
	}
	loaded := *s
	return &loaded, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.transcripts, id)
	return nil
}

func (m *MockStorage) AppendTranscript(ctx context.Context, sessionID uuid.UUID, entry session.TranscriptEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts[sessionID] = append(m.transcripts[sessionID], entry)
	return nil
}

func (m *MockStorage) Transcript(ctx context.Context, sessionID uuid.UUID) ([]session.TranscriptEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.transcripts[sessionID]), nil
}

// AddDialogue adds a dialogue graph to the mock storage (for testing)
func (m *MockStorage) AddDialogue(filename string, g *dialogue.Graph) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialogues[filename] = g
}

func (m *MockStorage) ListDialogues(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.dialogues)), nil
}

func (m *MockStorage) GetDialogue(ctx context.Context, filename string) (*dialogue.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, exists := m.dialogues[filename]
	if !exists {
		return nil, fmt.Errorf("%w: %s", dialogue.ErrResourceNotFound, filename)
	}
	return g, nil
}

// AddMap adds a map to the mock storage (for testing)
func (m *MockStorage) AddMap(filename string, tm *tilemap.Map) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maps[filename] = tm
}

func (m *MockStorage) ListMaps(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.maps)), nil
}

func (m *MockStorage) GetMap(ctx context.Context, filename string) (*tilemap.Map, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tm, exists := m.maps[filename]
	if !exists {
		return nil, fmt.Errorf("%w: %s", tilemap.ErrMapNotFound, filename)
	}
	return tm, nil
}

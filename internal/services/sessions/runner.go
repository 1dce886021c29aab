package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/services/events"
	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
	"github.com/jwebster45206/chronicle-rpg/pkg/session"
	"github.com/jwebster45206/chronicle-rpg/pkg/state"
	"github.com/jwebster45206/chronicle-rpg/pkg/storage"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrGameStateNotFound = errors.New("game state not found")
)

// Result is what every session operation returns: the session record, the
// renderable view of where it stands, and the game state it runs against.
type Result struct {
	Session   *session.Session `json:"session"`
	View      dialogue.View    `json:"view"`
	GameState *state.GameState `json:"gamestate"`
	Choice    string           `json:"choice,omitempty"` // Text of the choice just taken
}

// Runner drives dialogue sessions stored in Storage. It is used by both the
// HTTP session endpoints and the websocket play endpoint.
type Runner struct {
	storage   storage.Storage
	publisher events.Publisher // May be nil
	logger    *slog.Logger
	locks     *keyedLocks
}

func NewRunner(storage storage.Storage, publisher events.Publisher, logger *slog.Logger) *Runner {
	return &Runner{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		locks:     newKeyedLocks(),
	}
}

// Start opens a new session on a dialogue document. A nil gameStateID
// creates a fresh game state; otherwise the existing one is used.
func (r *Runner) Start(ctx context.Context, dialogueFile string, gameStateID uuid.UUID) (*Result, error) {
	graph, err := r.storage.GetDialogue(ctx, dialogueFile)
	if err != nil {
		return nil, err
	}

	var gs *state.GameState
	if gameStateID == uuid.Nil {
		gs = state.NewGameState()
	} else {
		gs, err = r.storage.LoadGameState(ctx, gameStateID)
		if err != nil {
			return nil, fmt.Errorf("failed to load game state: %w", err)
		}
		if gs == nil {
			return nil, fmt.Errorf("%w: %s", ErrGameStateNotFound, gameStateID)
		}
	}

	s := session.New(dialogueFile, gs.ID, graph)
	if err := r.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	if err := r.storage.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	r.logger.Debug("Dialogue session started", "session_id", s.ID, "game_state_id", gs.ID, "dialogue", dialogueFile)
	r.publish(ctx, s.ID, events.NewStartedEvent(gs.ID, dialogueFile, s.NodeID))

	tree := s.Tree(graph, gs)
	return &Result{Session: s, View: tree.View(), GameState: gs}, nil
}

// Get returns the current view of a session without changing it.
func (r *Runner) Get(ctx context.Context, sessionID uuid.UUID) (*Result, error) {
	s, gs, graph, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Result{Session: s, View: s.Tree(graph, gs).View(), GameState: gs}, nil
}

// Advance takes the visible choice at index. An index that is not a
// visible choice ends the session, as does advancing a session whose
// current node has no visible choices.
func (r *Runner) Advance(ctx context.Context, sessionID uuid.UUID, index int) (*Result, error) {
	unlock, err := r.lockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, gs, graph, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tree := s.Tree(graph, gs)
	from := s.NodeID
	var fromText string
	if node, ok := tree.CurrentNode(); ok {
		fromText = node.Text
	}

	choice := tree.Advance(index)
	s.Sync(tree)

	if err := r.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	if err := r.storage.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	result := &Result{Session: s, View: tree.View(), GameState: gs}
	if choice == nil {
		r.logger.Debug("Dialogue ended without a valid choice", "session_id", s.ID, "index", index)
		r.publish(ctx, s.ID, events.NewChoiceEvent(gs.ID, from, "", "", true))
		return result, nil
	}

	result.Choice = choice.Text
	entry := session.TranscriptEntry{
		NodeID:   from,
		NodeText: fromText,
		Choice:   choice.Text,
		Next:     s.NodeID,
		At:       time.Now(),
	}
	if err := r.storage.AppendTranscript(ctx, s.ID, entry); err != nil {
		r.logger.Error("Failed to append transcript", "session_id", s.ID, "error", err)
	}

	r.publish(ctx, s.ID, events.NewChoiceEvent(gs.ID, from, choice.Text, s.NodeID, s.Finished()))
	if len(choice.Effect.Ops()) > 0 {
		r.publish(ctx, s.ID, events.NewGameStateEvent(gs.ID, gs.Inventory, gs.Factions))
	}
	return result, nil
}

// Reset moves a session back to the dialogue's start node. Effects already
// applied to the game state are kept.
func (r *Runner) Reset(ctx context.Context, sessionID uuid.UUID) (*Result, error) {
	unlock, err := r.lockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, gs, graph, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tree := s.Tree(graph, gs)
	tree.Reset()
	s.Sync(tree)
	if err := r.storage.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	r.publish(ctx, s.ID, events.NewResetEvent(gs.ID, s.NodeID))
	return &Result{Session: s, View: tree.View(), GameState: gs}, nil
}

func (r *Runner) Transcript(ctx context.Context, sessionID uuid.UUID) ([]session.TranscriptEntry, error) {
	s, err := r.storage.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return r.storage.Transcript(ctx, sessionID)
}

// Delete removes a session and its transcript. The game state is kept.
func (r *Runner) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return r.storage.DeleteSession(ctx, sessionID)
}

func (r *Runner) load(ctx context.Context, sessionID uuid.UUID) (*session.Session, *state.GameState, *dialogue.Graph, error) {
	s, err := r.storage.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	gs, err := r.storage.LoadGameState(ctx, s.GameStateID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrGameStateNotFound, s.GameStateID)
	}

	graph, err := r.storage.GetDialogue(ctx, s.Dialogue)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, gs, graph, nil
}

// lockSession serializes writers on the session's game state, since
// sessions of the same game share it.
func (r *Runner) lockSession(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	s, err := r.storage.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return r.locks.lock(s.GameStateID), nil
}

func (r *Runner) publish(ctx context.Context, sessionID uuid.UUID, event events.Event) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, sessionID, event); err != nil {
		r.logger.Warn("Failed to publish dialogue event", "session_id", sessionID, "event_type", event.Type, "error", err)
	}
}

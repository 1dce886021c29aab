// Package session persists a player's position in a dialogue between
// requests. The game state itself is stored separately and shared by every
// session of the same game.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
)

type Session struct {
	ID          uuid.UUID `json:"id"`
	GameStateID uuid.UUID `json:"gamestate_id"`
	Dialogue    string    `json:"dialogue"`          // Document file name
	NodeID      string    `json:"node_id"`
	Done        bool      `json:"finished"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// New starts a session at the graph's start node.
func New(dialogueFile string, gameStateID uuid.UUID, graph *dialogue.Graph) *Session {
	now := time.Now()
	return &Session{
		ID:          uuid.New(),
		GameStateID: gameStateID,
		Dialogue:    dialogueFile,
		NodeID:      graph.Start,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Tree rebuilds the running dialogue at the session's position.
func (s *Session) Tree(graph *dialogue.Graph, st dialogue.State) *dialogue.Tree {
	t := dialogue.New(graph, st)
	if s.Done {
		t.Finish()
	} else {
		t.Seek(s.NodeID)
	}
	return t
}

// Sync records the tree's current position.
func (s *Session) Sync(t *dialogue.Tree) {
	id, ok := t.CurrentID()
	s.NodeID = id
	s.Done = !ok
	s.UpdatedAt = time.Now()
}

func (s *Session) Finished() bool {
	return s.Done
}

// TranscriptEntry records one choice taken in a session.
type TranscriptEntry struct {
	NodeID   string    `json:"node_id"`
	NodeText string    `json:"node_text"`
	Choice   string    `json:"choice"`
	Next     string    `json:"next,omitempty"`
	At       time.Time `json:"at"`
}

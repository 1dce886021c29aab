// Package queue defines the requests passed from the API to workers through
// the Redis request queue.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeAdvance takes a choice in a session
	RequestTypeAdvance RequestType = "advance"

	// RequestTypeReset returns a session to its start node
	RequestTypeReset RequestType = "reset"
)

// Request is one queued session action.
type Request struct {
	RequestID   string      `json:"request_id"`
	Type        RequestType `json:"type"`
	SessionID   uuid.UUID   `json:"session_id"`
	GameStateID uuid.UUID   `json:"game_state_id"` // Lock key; sessions of one game are processed one at a time

	// Advance-specific fields
	Choice int `json:"choice,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewAdvanceRequest builds a request to take the visible choice at index.
func NewAdvanceRequest(sessionID, gameStateID uuid.UUID, index int) *Request {
	return &Request{
		RequestID:   uuid.New().String(),
		Type:        RequestTypeAdvance,
		SessionID:   sessionID,
		GameStateID: gameStateID,
		Choice:      index,
		EnqueuedAt:  time.Now(),
	}
}

func NewResetRequest(sessionID, gameStateID uuid.UUID) *Request {
	return &Request{
		RequestID:   uuid.New().String(),
		Type:        RequestTypeReset,
		SessionID:   sessionID,
		GameStateID: gameStateID,
		EnqueuedAt:  time.Now(),
	}
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

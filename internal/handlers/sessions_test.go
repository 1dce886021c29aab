package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
	"github.com/jwebster45206/chronicle-rpg/pkg/queue"
	"github.com/jwebster45206/chronicle-rpg/pkg/session"
	"github.com/jwebster45206/chronicle-rpg/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSession(t *testing.T, handler http.Handler, body any) sessions.Result {
	t.Helper()
	rr := doRequest(t, handler, http.MethodPost, "/v1/sessions", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[sessions.Result](t, rr)
}

func TestSessionHandler_Flow(t *testing.T) {
	runner, ms := setupRunner(t)
	handler := NewSessionHandler(runner, testLogger())

	started := startSession(t, handler, CreateSessionRequest{Dialogue: "station_contact.json"})
	require.NotNil(t, started.Session)
	assert.Equal(t, "greeting", started.View.NodeID)
	assert.Equal(t, "Welcome, capsuleer.", started.View.Text)
	// has_secret_data hides the intel choice
	require.Len(t, started.View.Choices, 2)
	assert.Equal(t, "Looking for work.", started.View.Choices[0].Text)
	assert.Equal(t, "Goodbye.", started.View.Choices[1].Text)

	base := "/v1/sessions/" + started.Session.ID.String()

	rr := doRequest(t, handler, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "greeting", decodeBody[sessions.Result](t, rr).View.NodeID)

	rr = doRequest(t, handler, http.MethodPost, base+"/advance", AdvanceRequest{Choice: intPtr(0)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decodeBody[sessions.Result](t, rr)
	assert.Equal(t, "work", res.View.NodeID)
	assert.Equal(t, "Looking for work.", res.Choice)

	rr = doRequest(t, handler, http.MethodPost, base+"/advance", AdvanceRequest{Choice: intPtr(0)})
	require.Equal(t, http.StatusOK, rr.Code)
	res = decodeBody[sessions.Result](t, rr)
	assert.Equal(t, "accepted", res.View.NodeID)
	assert.True(t, res.GameState.HasItem("supply_contract"))
	assert.Equal(t, 5, res.GameState.Standing("Caldari Navy"))

	gs, err := ms.LoadGameState(t.Context(), started.Session.GameStateID)
	require.NoError(t, err)
	assert.True(t, gs.HasItem("supply_contract"))

	rr = doRequest(t, handler, http.MethodGet, base+"/transcript", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entries := decodeBody[[]session.TranscriptEntry](t, rr)
	require.Len(t, entries, 2)
	assert.Equal(t, "greeting", entries[0].NodeID)
	assert.Equal(t, "work", entries[0].Next)
	assert.Equal(t, "Accept.", entries[1].Choice)

	rr = doRequest(t, handler, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	res = decodeBody[sessions.Result](t, rr)
	assert.Equal(t, "greeting", res.View.NodeID)
	assert.True(t, res.GameState.HasItem("supply_contract"), "reset keeps applied effects")

	rr = doRequest(t, handler, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = doRequest(t, handler, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_InvalidChoiceFinishes(t *testing.T) {
	runner, _ := setupRunner(t)
	handler := NewSessionHandler(runner, testLogger())
	started := startSession(t, handler, CreateSessionRequest{Dialogue: "station_contact.json"})

	rr := doRequest(t, handler, http.MethodPost, "/v1/sessions/"+started.Session.ID.String()+"/advance", AdvanceRequest{Choice: intPtr(7)})
	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeBody[sessions.Result](t, rr)
	assert.True(t, res.View.Finished)
	assert.Empty(t, res.View.Choices)
	assert.Empty(t, res.Choice)
}

func TestSessionHandler_ExistingGameState(t *testing.T) {
	runner, ms := setupRunner(t)
	handler := NewSessionHandler(runner, testLogger())

	gs := state.NewGameState()
	gs.AddItem("secret_data")
	require.NoError(t, ms.SaveGameState(t.Context(), gs.ID, gs))

	started := startSession(t, handler, CreateSessionRequest{Dialogue: "station_contact.json", GameStateID: gs.ID})
	assert.Equal(t, gs.ID, started.Session.GameStateID)
	assert.Len(t, started.View.Choices, 3)
}

func TestSessionHandler_Errors(t *testing.T) {
	runner, _ := setupRunner(t)
	handler := NewSessionHandler(runner, testLogger())
	started := startSession(t, handler, CreateSessionRequest{Dialogue: "station_contact.json"})
	base := "/v1/sessions/" + started.Session.ID.String()

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{"missing dialogue", http.MethodPost, "/v1/sessions", CreateSessionRequest{}, http.StatusBadRequest},
		{"unknown dialogue", http.MethodPost, "/v1/sessions", CreateSessionRequest{Dialogue: "nope.json"}, http.StatusNotFound},
		{"unknown game state", http.MethodPost, "/v1/sessions", CreateSessionRequest{Dialogue: "station_contact.json", GameStateID: uuid.New()}, http.StatusNotFound},
		{"invalid json", http.MethodPost, "/v1/sessions", "{", http.StatusBadRequest},
		{"list not allowed", http.MethodGet, "/v1/sessions", nil, http.StatusMethodNotAllowed},
		{"invalid id", http.MethodGet, "/v1/sessions/abc", nil, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/v1/sessions/" + uuid.NewString(), nil, http.StatusNotFound},
		{"advance without choice", http.MethodPost, base + "/advance", nil, http.StatusBadRequest},
		{"advance unknown session", http.MethodPost, "/v1/sessions/" + uuid.NewString() + "/advance", AdvanceRequest{Choice: intPtr(0)}, http.StatusNotFound},
		{"get on advance", http.MethodGet, base + "/advance", nil, http.StatusMethodNotAllowed},
		{"unknown action", http.MethodPost, base + "/skip", nil, http.StatusNotFound},
		{"too deep", http.MethodGet, base + "/transcript/1", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, handler, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

type recordingQueue struct {
	requests []*queue.Request
	err      error
}

func (q *recordingQueue) EnqueueRequest(ctx context.Context, req *queue.Request) error {
	if q.err != nil {
		return q.err
	}
	q.requests = append(q.requests, req)
	return nil
}

func TestSessionHandler_Enqueue(t *testing.T) {
	runner, _ := setupRunner(t)
	q := &recordingQueue{}
	handler := NewSessionHandler(runner, testLogger()).WithQueue(q)
	started := startSession(t, handler, CreateSessionRequest{Dialogue: "station_contact.json"})
	base := "/v1/sessions/" + started.Session.ID.String()

	rr := doRequest(t, handler, http.MethodPost, base+"/enqueue", EnqueueRequest{Choice: intPtr(1)})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	resp := decodeBody[EnqueueResponse](t, rr)
	require.Len(t, q.requests, 1)
	assert.Equal(t, q.requests[0].RequestID, resp.RequestID)
	assert.Equal(t, queue.RequestTypeAdvance, q.requests[0].Type)
	assert.Equal(t, 1, q.requests[0].Choice)
	assert.Equal(t, started.Session.GameStateID, q.requests[0].GameStateID)

	rr = doRequest(t, handler, http.MethodPost, base+"/enqueue", EnqueueRequest{Reset: true})
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, q.requests, 2)
	assert.Equal(t, queue.RequestTypeReset, q.requests[1].Type)

	// Nothing runs until a worker picks the request up
	rr = doRequest(t, handler, http.MethodGet, base, nil)
	assert.Equal(t, "greeting", decodeBody[sessions.Result](t, rr).View.NodeID)

	tests := []struct {
		name           string
		path           string
		body           any
		expectedStatus int
	}{
		{"empty body", base + "/enqueue", "{}", http.StatusBadRequest},
		{"invalid json", base + "/enqueue", "{", http.StatusBadRequest},
		{"unknown session", "/v1/sessions/" + uuid.NewString() + "/enqueue", EnqueueRequest{Reset: true}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, handler, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}

	q.err = errors.New("redis down")
	rr = doRequest(t, handler, http.MethodPost, base+"/enqueue", EnqueueRequest{Reset: true})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSessionHandler_EnqueueWithoutQueue(t *testing.T) {
	runner, _ := setupRunner(t)
	handler := NewSessionHandler(runner, testLogger())
	started := startSession(t, handler, CreateSessionRequest{Dialogue: "station_contact.json"})

	rr := doRequest(t, handler, http.MethodPost, "/v1/sessions/"+started.Session.ID.String()+"/enqueue", EnqueueRequest{Reset: true})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func intPtr(i int) *int {
	return &i
}

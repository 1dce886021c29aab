package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
	"github.com/jwebster45206/chronicle-rpg/pkg/queue"
	"github.com/jwebster45206/chronicle-rpg/pkg/storage"
)

// Enqueuer accepts session requests for a worker to run later.
type Enqueuer interface {
	EnqueueRequest(ctx context.Context, req *queue.Request) error
}

type SessionHandler struct {
	runner *sessions.Runner
	queue  Enqueuer // May be nil; enqueue is then unavailable
	logger *slog.Logger
}

func NewSessionHandler(runner *sessions.Runner, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		runner: runner,
		logger: logger,
	}
}

// WithQueue enables POST /v1/sessions/{id}/enqueue.
func (h *SessionHandler) WithQueue(q Enqueuer) *SessionHandler {
	h.queue = q
	return h
}

// CreateSessionRequest defines the request body for starting a dialogue session
type CreateSessionRequest struct {
	Dialogue    string    `json:"dialogue"`               // Required: dialogue filename
	GameStateID uuid.UUID `json:"gamestate_id,omitempty"` // Optional: run against an existing game state
}

// AdvanceRequest selects a choice by its index among the visible choices.
type AdvanceRequest struct {
	Choice *int `json:"choice"`
}

// EnqueueRequest is either a choice to take or a reset.
type EnqueueRequest struct {
	Choice *int `json:"choice,omitempty"`
	Reset  bool `json:"reset,omitempty"`
}

// EnqueueResponse is returned when a request has been accepted for processing.
type EnqueueResponse struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// ServeHTTP handles dialogue session requests
// Routes:
// POST /v1/sessions                 - Start a session
// GET /v1/sessions/{id}             - Current node and visible choices
// POST /v1/sessions/{id}/advance    - Take a choice
// POST /v1/sessions/{id}/reset      - Return to the start node
// POST /v1/sessions/{id}/enqueue    - Queue a choice or reset for the worker
// GET /v1/sessions/{id}/transcript  - Choices taken so far
// DELETE /v1/sessions/{id}          - Delete the session
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/sessions")

	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	} else if len(parts) > 2 {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		res, err := h.runner.Get(r.Context(), sessionID)
		h.writeResult(w, res, err)
	case action == "" && r.Method == http.MethodDelete:
		if err := h.runner.Delete(r.Context(), sessionID); err != nil {
			h.logger.Error("Failed to delete session", "session_id", sessionID, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case action == "advance" && r.Method == http.MethodPost:
		h.handleAdvance(w, r, sessionID)
	case action == "reset" && r.Method == http.MethodPost:
		res, err := h.runner.Reset(r.Context(), sessionID)
		h.writeResult(w, res, err)
	case action == "enqueue" && r.Method == http.MethodPost:
		h.handleEnqueue(w, r, sessionID)
	case action == "transcript" && r.Method == http.MethodGet:
		entries, err := h.runner.Transcript(r.Context(), sessionID)
		if err != nil {
			h.writeRunnerError(w, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, entries)
	case action == "" || action == "advance" || action == "reset" || action == "enqueue" || action == "transcript":
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Dialogue == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Dialogue is required")
		return
	}

	res, err := h.runner.Start(r.Context(), req.Dialogue, req.GameStateID)
	if err != nil {
		h.writeRunnerError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, res)
}

func (h *SessionHandler) handleAdvance(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Choice == nil {
		writeError(w, h.logger, http.StatusBadRequest, "Choice is required")
		return
	}

	res, err := h.runner.Advance(r.Context(), sessionID, *req.Choice)
	h.writeResult(w, res, err)
}

func (h *SessionHandler) handleEnqueue(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	if h.queue == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Request queue is not configured")
		return
	}

	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Choice == nil && !req.Reset {
		writeError(w, h.logger, http.StatusBadRequest, "Either choice or reset is required")
		return
	}

	// The worker locks on the game state, so resolve it now
	current, err := h.runner.Get(r.Context(), sessionID)
	if err != nil {
		h.writeRunnerError(w, err)
		return
	}
	gameStateID := current.Session.GameStateID

	var qr *queue.Request
	if req.Reset {
		qr = queue.NewResetRequest(sessionID, gameStateID)
	} else {
		qr = queue.NewAdvanceRequest(sessionID, gameStateID, *req.Choice)
	}

	if err := h.queue.EnqueueRequest(r.Context(), qr); err != nil {
		h.logger.Error("Failed to enqueue session request", "session_id", sessionID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to enqueue request")
		return
	}

	h.logger.Info("Session request enqueued", "session_id", sessionID, "request_id", qr.RequestID, "type", qr.Type)
	writeJSON(w, h.logger, http.StatusAccepted, EnqueueResponse{
		RequestID: qr.RequestID,
		Message:   "Request enqueued for processing",
	})
}

func (h *SessionHandler) writeResult(w http.ResponseWriter, res *sessions.Result, err error) {
	if err != nil {
		h.writeRunnerError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

func (h *SessionHandler) writeRunnerError(w http.ResponseWriter, err error) {
	status, msg := runnerErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Session operation failed", "error", err)
	} else {
		h.logger.Warn("Session request rejected", "error", err)
	}
	writeError(w, h.logger, status, msg)
}

func runnerErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, sessions.ErrGameStateNotFound):
		return http.StatusNotFound, "Game state not found"
	case errors.Is(err, storage.ErrInvalidFilename):
		return http.StatusBadRequest, "Invalid dialogue file name"
	default:
		return dialogueErrorStatus(err)
	}
}

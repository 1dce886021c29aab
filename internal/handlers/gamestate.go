package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/pkg/state"
	"github.com/jwebster45206/chronicle-rpg/pkg/storage"
)

type GameStateHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewGameStateHandler(storage storage.Storage, logger *slog.Logger) *GameStateHandler {
	return &GameStateHandler{
		storage: storage,
		logger:  logger,
	}
}

// GameStateRequest seeds or patches a game state. Omitted fields are left alone.
type GameStateRequest struct {
	Inventory []string       `json:"inventory,omitempty"`
	Flags     map[string]any `json:"flags,omitempty"`
	Factions  map[string]int `json:"factions,omitempty"`
}

// ServeHTTP handles HTTP requests for game state operations
// Routes:
// POST /v1/gamestate        - Create new game state
// GET /v1/gamestate/{id}    - Read game state by ID
// PATCH /v1/gamestate/{id}  - Replace inventory, merge flags and factions
// DELETE /v1/gamestate/{id} - Delete game state by ID
func (h *GameStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/gamestate")
	if len(parts) > 1 {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	var gameStateID uuid.UUID
	if len(parts) == 1 {
		var err error
		gameStateID, err = uuid.Parse(parts[0])
		if err != nil {
			h.logger.Warn("Invalid game state ID", "id", parts[0], "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid game state ID format")
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet, http.MethodPatch, http.MethodDelete:
		if gameStateID == uuid.Nil {
			writeError(w, h.logger, http.StatusBadRequest, "Game state ID is required for "+r.Method+" requests")
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, gameStateID)
		case http.MethodPatch:
			h.handlePatch(w, r, gameStateID)
		default:
			h.handleDelete(w, r, gameStateID)
		}
	default:
		h.logger.Warn("Method not allowed for game state endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, PATCH, DELETE")
	}
}

func decodeGameStateRequest(r *http.Request) (GameStateRequest, error) {
	var req GameStateRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, nil // Empty body
	}
	return req, err
}

func (req GameStateRequest) applyTo(gs *state.GameState) {
	if req.Inventory != nil {
		gs.Inventory = append([]string(nil), req.Inventory...)
	}
	for name, value := range req.Flags {
		gs.SetFlag(name, value)
	}
	for faction, standing := range req.Factions {
		gs.AdjustStanding(faction, standing-gs.Standing(faction))
	}
}

func (h *GameStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGameStateRequest(r)
	if err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	gs := state.NewGameState()
	req.applyTo(gs)

	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save new game state", "error", err, "id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create game state")
		return
	}

	h.logger.Debug("Game state created successfully", "id", gs.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, gs)
}

func (h *GameStateHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gs, ok := h.load(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *GameStateHandler) handlePatch(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gs, ok := h.load(w, r, id)
	if !ok {
		return
	}

	req, err := decodeGameStateRequest(r)
	if err != nil {
		h.logger.Warn("Invalid JSON in PATCH request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	req.applyTo(gs)

	if err := h.storage.SaveGameState(r.Context(), id, gs); err != nil {
		h.logger.Error("Failed to save patched game state", "error", err, "id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to update game state")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *GameStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteGameState(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete game state", "error", err, "id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game state")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameStateHandler) load(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*state.GameState, bool) {
	gs, err := h.storage.LoadGameState(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load game state", "error", err, "id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return nil, false
	}
	if gs == nil {
		h.logger.Warn("Game state not found", "id", id.String())
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return nil, false
	}
	return gs, true
}

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/pkg/chronicle"
)

type ChronicleHandler struct {
	store  chronicle.Store
	logger *slog.Logger
}

func NewChronicleHandler(store chronicle.Store, logger *slog.Logger) *ChronicleHandler {
	return &ChronicleHandler{
		store:  store,
		logger: logger,
	}
}

// ServeHTTP handles chronicle progress for a game state
// GET /v1/chronicles/{gamestate_id} - All chronicles, keyed by chronicle ID
// PUT /v1/chronicles/{gamestate_id} - Replace all chronicles
func (h *ChronicleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/chronicles")
	if len(parts) != 1 {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/chronicles/{gamestate_id}")
		return
	}
	gameStateID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game state ID format")
		return
	}

	switch r.Method {
	case http.MethodGet:
		m, err := chronicle.LoadManager(r.Context(), h.store, gameStateID)
		if err != nil {
			h.logger.Error("Failed to load chronicles", "game_state_id", gameStateID, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load chronicles")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, m)

	case http.MethodPut:
		m := chronicle.NewManager()
		if err := json.NewDecoder(r.Body).Decode(m); err != nil {
			h.logger.Warn("Invalid chronicle body", "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid chronicle progress: "+err.Error())
			return
		}
		if err := h.store.SaveChronicles(r.Context(), gameStateID, m.All()); err != nil {
			h.logger.Error("Failed to save chronicles", "game_state_id", gameStateID, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save chronicles")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, m)

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT")
	}
}

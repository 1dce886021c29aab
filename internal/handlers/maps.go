package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jwebster45206/chronicle-rpg/pkg/storage"
	"github.com/jwebster45206/chronicle-rpg/pkg/tilemap"
)

type MapHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewMapHandler(storage storage.Storage, logger *slog.Logger) *MapHandler {
	return &MapHandler{
		storage: storage,
		logger:  logger,
	}
}

type BlockedResponse struct {
	X       int          `json:"x"`
	Y       int          `json:"y"`
	Blocked bool         `json:"blocked"`
	World   tilemap.Rect `json:"world"`
}

// ServeHTTP handles map requests
// GET /v1/maps                          - List map files
// GET /v1/maps/{file}                   - Map document
// GET /v1/maps/{file}/blocked?x=..&y=.. - Collision query for one tile
func (h *MapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	parts := pathParts(r.URL.Path, "/v1/maps")
	switch {
	case len(parts) == 0:
		files, err := h.storage.ListMaps(r.Context())
		if err != nil {
			h.logger.Error("Failed to list maps", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to list maps")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, files)
	case len(parts) == 1:
		if m, ok := h.load(w, r, parts[0]); ok {
			writeJSON(w, h.logger, http.StatusOK, m)
		}
	case len(parts) == 2 && parts[1] == "blocked":
		h.handleBlocked(w, r, parts[0])
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *MapHandler) handleBlocked(w http.ResponseWriter, r *http.Request, file string) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Integer x and y query parameters are required")
		return
	}

	m, ok := h.load(w, r, file)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, BlockedResponse{
		X:       x,
		Y:       y,
		Blocked: m.IsBlocked(x, y),
		World:   m.WorldPos(x, y),
	})
}

func (h *MapHandler) load(w http.ResponseWriter, r *http.Request, file string) (*tilemap.Map, bool) {
	m, err := h.storage.GetMap(r.Context(), file)
	if err == nil {
		return m, true
	}

	h.logger.Warn("Failed to load map", "file", file, "error", err)
	switch {
	case errors.Is(err, tilemap.ErrMapNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Map not found")
	case errors.Is(err, storage.ErrInvalidFilename):
		writeError(w, h.logger, http.StatusBadRequest, "Invalid map file name")
	case errors.Is(err, tilemap.ErrMalformedMap):
		writeError(w, h.logger, http.StatusUnprocessableEntity, "Map document is malformed: "+err.Error())
	default:
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load map")
	}
	return nil, false
}

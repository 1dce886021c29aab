package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
	"github.com/jwebster45206/chronicle-rpg/pkg/storage"
)

type DialogueHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewDialogueHandler(storage storage.Storage, logger *slog.Logger) *DialogueHandler {
	return &DialogueHandler{
		storage: storage,
		logger:  logger,
	}
}

// DialogueResponse is a dialogue document plus any lint issues found in it.
type DialogueResponse struct {
	File   string           `json:"file"`
	Graph  *dialogue.Graph  `json:"graph"`
	Issues []dialogue.Issue `json:"issues"`
}

// ServeHTTP handles dialogue document requests
// GET /v1/dialogues        - List dialogue files
// GET /v1/dialogues/{file} - Get one dialogue document
func (h *DialogueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	parts := pathParts(r.URL.Path, "/v1/dialogues")
	switch len(parts) {
	case 0:
		files, err := h.storage.ListDialogues(r.Context())
		if err != nil {
			h.logger.Error("Failed to list dialogues", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to list dialogues")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, files)
	case 1:
		h.handleGet(w, r, parts[0])
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *DialogueHandler) handleGet(w http.ResponseWriter, r *http.Request, file string) {
	g, err := h.storage.GetDialogue(r.Context(), file)
	if err != nil {
		status, msg := dialogueErrorStatus(err)
		h.logger.Warn("Failed to load dialogue", "file", file, "error", err)
		writeError(w, h.logger, status, msg)
		return
	}

	issues := g.Lint()
	if issues == nil {
		issues = []dialogue.Issue{}
	}
	writeJSON(w, h.logger, http.StatusOK, DialogueResponse{File: file, Graph: g, Issues: issues})
}

func dialogueErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, dialogue.ErrResourceNotFound):
		return http.StatusNotFound, "Dialogue not found"
	case errors.Is(err, storage.ErrInvalidFilename):
		return http.StatusBadRequest, "Invalid dialogue file name"
	case errors.Is(err, dialogue.ErrMalformedDocument):
		return http.StatusUnprocessableEntity, "Dialogue document is malformed: " + err.Error()
	default:
		return http.StatusInternalServerError, "Failed to load dialogue"
	}
}

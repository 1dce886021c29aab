package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/chronicle-rpg/internal/logger"
	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
)

const (
	playReadTimeout  = 5 * time.Minute
	playWriteTimeout = 5 * time.Second
)

// PlayMessage is sent by the client: either a choice index or a reset.
type PlayMessage struct {
	Choice *int `json:"choice,omitempty"`
	Reset  bool `json:"reset,omitempty"`
}

// PlayReply is sent by the server after connecting and after every message.
type PlayReply struct {
	Type   string           `json:"type"` // "view" or "error"
	Result *sessions.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// PlayHandler runs a session interactively over a websocket.
// GET /v1/play/{sessionID}
type PlayHandler struct {
	runner   *sessions.Runner
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewPlayHandler(runner *sessions.Runner, logger *slog.Logger) *PlayHandler {
	return &PlayHandler{
		runner: runner,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *PlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/play")
	if len(parts) != 1 {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/play/{sessionID}")
		return
	}
	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	// Fail before upgrading so the client gets a plain HTTP status
	initial, err := h.runner.Get(r.Context(), sessionID)
	if err != nil {
		status, msg := runnerErrorStatus(err)
		writeError(w, h.logger, status, msg)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.Close()

	log := logger.WithSession(h.logger, sessionID.String(), initial.Session.GameStateID.String())
	log.Info("Play connection established", "remote_addr", r.RemoteAddr)

	if err := h.write(conn, PlayReply{Type: "view", Result: initial}); err != nil {
		return
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(playReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("Play connection closed unexpectedly", "error", err)
			} else {
				log.Info("Play connection closed")
			}
			return
		}

		var msg PlayMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if h.write(conn, PlayReply{Type: "error", Error: "invalid message"}) != nil {
				return
			}
			continue
		}

		var res *sessions.Result
		switch {
		case msg.Reset:
			res, err = h.runner.Reset(r.Context(), sessionID)
		case msg.Choice != nil:
			res, err = h.runner.Advance(r.Context(), sessionID, *msg.Choice)
		default:
			if h.write(conn, PlayReply{Type: "error", Error: `expected "choice" or "reset"`}) != nil {
				return
			}
			continue
		}

		reply := PlayReply{Type: "view", Result: res}
		if err != nil {
			_, text := runnerErrorStatus(err)
			log.Warn("Play action failed", "error", err)
			reply = PlayReply{Type: "error", Error: text}
		}
		if h.write(conn, reply) != nil {
			return
		}
	}
}

func (h *PlayHandler) write(conn *websocket.Conn, reply PlayReply) error {
	_ = conn.SetWriteDeadline(time.Now().Add(playWriteTimeout))
	if err := conn.WriteJSON(reply); err != nil {
		h.logger.Debug("Failed to write play reply", "error", err)
		return err
	}
	return nil
}

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/chronicle-rpg/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	WithError(WithSession(l, "s1", "g1"), errors.New("boom")).Info("Dialogue advanced")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Dialogue advanced", entry["msg"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, "g1", entry["game_state_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNew_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelWarn})

	l.Info("hidden")
	WithRequestID(l, "abc").Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "msg=shown"))
	assert.Contains(t, out, "request_id=abc")
}

package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
	"github.com/jwebster45206/chronicle-rpg/pkg/storage"
	"github.com/stretchr/testify/require"
)

const stationDoc = `{
	"start": "greeting",
	"nodes": {
		"greeting": {"text": "Welcome, capsuleer.", "choices": [
			{"text": "Looking for work.", "next": "work"},
			{"text": "I have intel.", "next": "intel", "condition": "has_secret_data"},
			{"text": "Goodbye.", "next": null}
		]},
		"work": {"text": "Deliver supplies to Nonni.", "choices": [
			{"text": "Accept.", "next": "accepted", "effect": {
				"faction": {"Caldari Navy": 5},
				"add_item": "supply_contract"
			}},
			{"text": "Decline.", "next": null}
		]},
		"accepted": {"text": "Fly safe.", "choices": []},
		"intel": {"text": "Valuable intel.", "choices": [{"text": "Done.", "next": "missing_node"}]}
	}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func setupStorage(t *testing.T) *storage.MockStorage {
	t.Helper()
	graph, err := dialogue.Parse([]byte(stationDoc), dialogue.FormatJSON)
	require.NoError(t, err)

	ms := storage.NewMockStorage()
	ms.AddDialogue("station_contact.json", graph)
	return ms
}

func setupRunner(t *testing.T) (*sessions.Runner, *storage.MockStorage) {
	t.Helper()
	ms := setupStorage(t)
	return sessions.NewRunner(ms, nil, testLogger()), ms
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

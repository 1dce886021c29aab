package handlers

import (
	"net/http"
	"testing"

	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialogueHandler_List(t *testing.T) {
	handler := NewDialogueHandler(setupStorage(t), testLogger())

	rr := doRequest(t, handler, http.MethodGet, "/v1/dialogues", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"station_contact.json"}, decodeBody[[]string](t, rr))
}

func TestDialogueHandler_Get(t *testing.T) {
	handler := NewDialogueHandler(setupStorage(t), testLogger())

	rr := doRequest(t, handler, http.MethodGet, "/v1/dialogues/station_contact.json", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decodeBody[DialogueResponse](t, rr)
	assert.Equal(t, "station_contact.json", resp.File)
	require.NotNil(t, resp.Graph)
	assert.Equal(t, "greeting", resp.Graph.Start)
	assert.Len(t, resp.Graph.Nodes, 4)

	// intel's only choice points at a node that does not exist
	require.NotEmpty(t, resp.Issues)
	var found bool
	for _, issue := range resp.Issues {
		if issue.NodeID == "intel" {
			found = true
		}
	}
	assert.True(t, found, "expected a lint issue for node intel: %+v", resp.Issues)
}

func TestDialogueHandler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"unknown file", http.MethodGet, "/v1/dialogues/missing.json", http.StatusNotFound},
		{"nested path", http.MethodGet, "/v1/dialogues/a/b", http.StatusNotFound},
		{"post not allowed", http.MethodPost, "/v1/dialogues", http.StatusMethodNotAllowed},
	}

	handler := NewDialogueHandler(setupStorage(t), testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, handler, tt.method, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestDialogueErrorStatus(t *testing.T) {
	status, _ := dialogueErrorStatus(dialogue.ErrMalformedDocument)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = dialogueErrorStatus(dialogue.ErrResourceNotFound)
	assert.Equal(t, http.StatusNotFound, status)
}

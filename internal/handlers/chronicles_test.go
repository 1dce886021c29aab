package handlers

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/storage"
	"github.com/jwebster45206/chronicle-rpg/pkg/chronicle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChronicleHandler(t *testing.T) *ChronicleHandler {
	t.Helper()
	store, err := storage.OpenChronicleStore(filepath.Join(t.TempDir(), "chronicles.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewChronicleHandler(store, testLogger())
}

func TestChronicleHandler_PutAndGet(t *testing.T) {
	handler := setupChronicleHandler(t)
	path := "/v1/chronicles/" + uuid.NewString()

	rr := doRequest(t, handler, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{}`, rr.Body.String())

	body := `{
		"supply_run": {"chronicle_id": "supply_run", "current_stage": "deliver", "flags": {"ambushed": true}},
		"intel_op": {"chronicle_id": "intel_op", "current_stage": "report", "completed": true}
	}`
	rr = doRequest(t, handler, http.MethodPut, path, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doRequest(t, handler, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	m := chronicle.NewManager()
	require.NoError(t, m.UnmarshalJSON(rr.Body.Bytes()))
	assert.Equal(t, 2, m.Len())

	p, ok := m.Get("supply_run")
	require.True(t, ok)
	assert.Equal(t, "deliver", p.CurrentStage)
	assert.False(t, p.Completed)
	assert.Equal(t, true, p.Flags["ambushed"])

	p, ok = m.Get("intel_op")
	require.True(t, ok)
	assert.True(t, p.Completed)
}

func TestChronicleHandler_Errors(t *testing.T) {
	handler := setupChronicleHandler(t)
	path := "/v1/chronicles/" + uuid.NewString()

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{"missing id", http.MethodGet, "/v1/chronicles", nil, http.StatusBadRequest},
		{"invalid id", http.MethodGet, "/v1/chronicles/xyz", nil, http.StatusBadRequest},
		{"malformed body", http.MethodPut, path, `[1, 2]`, http.StatusBadRequest},
		{"missing stage", http.MethodPut, path, `{"a": {"chronicle_id": "a"}}`, http.StatusBadRequest},
		{"method not allowed", http.MethodPost, path, nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, handler, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

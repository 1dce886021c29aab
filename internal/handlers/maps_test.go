package handlers

import (
	"net/http"
	"testing"

	"github.com/jwebster45206/chronicle-rpg/pkg/storage"
	"github.com/jwebster45206/chronicle-rpg/pkg/tilemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMapHandler(t *testing.T) *MapHandler {
	t.Helper()
	m, err := tilemap.Parse([]byte(`{
		"name": "Docking Ring",
		"width": 10,
		"height": 8,
		"collisions": [[2, 3]]
	}`), false)
	require.NoError(t, err)

	ms := storage.NewMockStorage()
	ms.AddMap("docking_ring.json", m)
	return NewMapHandler(ms, testLogger())
}

func TestMapHandler_ListAndGet(t *testing.T) {
	handler := setupMapHandler(t)

	rr := doRequest(t, handler, http.MethodGet, "/v1/maps", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"docking_ring.json"}, decodeBody[[]string](t, rr))

	rr = doRequest(t, handler, http.MethodGet, "/v1/maps/docking_ring.json", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	m := decodeBody[tilemap.Map](t, rr)
	assert.Equal(t, "Docking Ring", m.Name)
	assert.Equal(t, tilemap.DefaultTileSize, m.TileSize)
}

func TestMapHandler_Blocked(t *testing.T) {
	handler := setupMapHandler(t)

	tests := []struct {
		name     string
		query    string
		blocked  bool
		expected tilemap.Rect
	}{
		{"collision tile", "?x=2&y=3", true, tilemap.Rect{X: 64, Y: 96, W: 32, H: 32}},
		{"open tile", "?x=3&y=3", false, tilemap.Rect{X: 96, Y: 96, W: 32, H: 32}},
		{"off map", "?x=-1&y=0", false, tilemap.Rect{X: -32, Y: 0, W: 32, H: 32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, handler, http.MethodGet, "/v1/maps/docking_ring.json/blocked"+tt.query, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			resp := decodeBody[BlockedResponse](t, rr)
			assert.Equal(t, tt.blocked, resp.Blocked)
			assert.Equal(t, tt.expected, resp.World)
		})
	}
}

func TestMapHandler_Errors(t *testing.T) {
	handler := setupMapHandler(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"unknown map", http.MethodGet, "/v1/maps/nowhere.json", http.StatusNotFound},
		{"blocked on unknown map", http.MethodGet, "/v1/maps/nowhere.json/blocked?x=1&y=1", http.StatusNotFound},
		{"missing coordinates", http.MethodGet, "/v1/maps/docking_ring.json/blocked?x=1", http.StatusBadRequest},
		{"non-integer coordinates", http.MethodGet, "/v1/maps/docking_ring.json/blocked?x=a&y=1", http.StatusBadRequest},
		{"unknown sub-resource", http.MethodGet, "/v1/maps/docking_ring.json/npcs", http.StatusNotFound},
		{"post not allowed", http.MethodPost, "/v1/maps", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, handler, tt.method, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

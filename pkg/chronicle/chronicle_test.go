package chronicle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Start(t *testing.T) {
	m := NewManager()
	m.Start("supply_run", "depart")

	p, ok := m.Get("supply_run")
	require.True(t, ok)
	assert.Equal(t, "supply_run", p.ChronicleID)
	assert.Equal(t, "depart", p.CurrentStage)
	assert.False(t, p.Completed)
	assert.Empty(t, p.Flags)
}

func TestManager_GetUnknown(t *testing.T) {
	m := NewManager()
	p, ok := m.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestManager_UnknownChronicleIsNoOp(t *testing.T) {
	m := NewManager()
	assert.NotPanics(t, func() {
		m.AdvanceStage("nope", "stage2")
		m.SetFlag("nope", "flag", true)
		m.Complete("nope")
	})
	assert.Equal(t, 0, m.Len())
}

func TestManager_FullLifecycle(t *testing.T) {
	m := NewManager()
	m.Start("caldari_supply", "travel")
	m.SetFlag("caldari_supply", "met_contact", true)
	m.AdvanceStage("caldari_supply", "deliver")
	m.SetFlag("caldari_supply", "cargo_intact", true)
	m.Complete("caldari_supply")

	p, ok := m.Get("caldari_supply")
	require.True(t, ok)
	assert.True(t, p.Completed)
	assert.Equal(t, "deliver", p.CurrentStage)
	assert.Equal(t, map[string]any{"met_contact": true, "cargo_intact": true}, p.Flags)
}

func TestManager_GetReturnsCopy(t *testing.T) {
	m := NewManager()
	m.Start("supply_run", "depart")

	p, _ := m.Get("supply_run")
	p.CurrentStage = "tampered"
	p.Flags["tampered"] = true

	fresh, _ := m.Get("supply_run")
	assert.Equal(t, "depart", fresh.CurrentStage)
	assert.NotContains(t, fresh.Flags, "tampered")
}

func TestManager_StartRestarts(t *testing.T) {
	m := NewManager()
	m.Start("supply_run", "depart")
	m.Complete("supply_run")
	m.Start("supply_run", "depart")

	p, _ := m.Get("supply_run")
	assert.False(t, p.Completed)
}

func TestManager_All(t *testing.T) {
	m := NewManager()
	m.Start("b_arc", "one")
	m.Start("a_arc", "two")

	all := m.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a_arc", all[0].ChronicleID)
	assert.Equal(t, "b_arc", all[1].ChronicleID)
}

func newPopulatedManager() *Manager {
	m := NewManager()
	m.Start("supply_run", "depart")
	m.SetFlag("supply_run", "ambushed", true)
	m.AdvanceStage("supply_run", "deliver")
	m.Start("intel_op", "gather")
	m.Complete("intel_op")
	return m
}

func TestManager_SaveAndLoad(t *testing.T) {
	for _, name := range []string{"progress.json", "progress.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "saves", name)
			require.NoError(t, newPopulatedManager().Save(path))

			loaded := NewManager()
			require.NoError(t, loaded.Load(path))

			p1, ok := loaded.Get("supply_run")
			require.True(t, ok)
			assert.Equal(t, "deliver", p1.CurrentStage)
			assert.Equal(t, true, p1.Flags["ambushed"])
			assert.False(t, p1.Completed)

			p2, ok := loaded.Get("intel_op")
			require.True(t, ok)
			assert.True(t, p2.Completed)
		})
	}
}

func TestManager_SaveFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	m := NewManager()
	m.Start("supply_run", "depart")
	require.NoError(t, m.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"supply_run\": {")

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]any{
		"chronicle_id":  "supply_run",
		"current_stage": "depart",
		"completed":     false,
		"flags":         map[string]any{},
	}, raw["supply_run"])
}

func TestManager_CompressedSaveIsNotPlainJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.zst")
	require.NoError(t, newPopulatedManager().Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, json.Valid(data))
}

func TestManager_LoadMissingFile(t *testing.T) {
	m := NewManager()
	m.Start("keep_me", "one")

	require.NoError(t, m.Load(filepath.Join(t.TempDir(), "does_not_exist.json")))
	_, ok := m.Get("keep_me")
	assert.True(t, ok)
}

func TestManager_LoadReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"supply_run": {"chronicle_id": "supply_run", "current_stage": "deliver"}
	}`), 0o644))

	m := NewManager()
	m.Start("stale", "one")
	require.NoError(t, m.Load(path))

	assert.Equal(t, 1, m.Len())
	p, ok := m.Get("supply_run")
	require.True(t, ok)
	assert.False(t, p.Completed)
	assert.Empty(t, p.Flags)
}

func TestManager_LoadKeysByObjectKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"supply_run": {"chronicle_id": "old_supply_run", "current_stage": "deliver"}
	}`), 0o644))

	m := NewManager()
	require.NoError(t, m.Load(path))

	p, ok := m.Get("supply_run")
	require.True(t, ok)
	assert.Equal(t, "old_supply_run", p.ChronicleID)
	_, ok = m.Get("old_supply_run")
	assert.False(t, ok)

	m.AdvanceStage("supply_run", "return")
	data, err := json.Marshal(m)
	require.NoError(t, err)
	var saved map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Contains(t, saved, "supply_run")
	assert.Equal(t, "return", saved["supply_run"]["current_stage"])
}

func TestManager_SaveToUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should go
	path := filepath.Join(dir, "progress.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	m := NewManager()
	m.Start("supply_run", "accept")
	assert.Error(t, m.Save(path))
}

func TestManager_LoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{"},
		{"missing current_stage", `{"a": {"chronicle_id": "a"}}`},
		{"missing chronicle_id", `{"a": {"current_stage": "one"}}`},
		{"wrong shape", `["a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "progress.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			err := NewManager().Load(path)
			assert.ErrorIs(t, err, ErrMalformedSave)
		})
	}
}

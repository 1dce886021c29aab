// Package chronicle tracks the player's progress through multi-stage story
// arcs ("chronicles") and persists it between sessions.
package chronicle

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrMalformedSave is returned when saved progress cannot be decoded.
var ErrMalformedSave = errors.New("malformed chronicle save")

// Progress is the state of a single chronicle.
type Progress struct {
	ChronicleID  string         `json:"chronicle_id"`
	CurrentStage string         `json:"current_stage"`
	Completed    bool           `json:"completed"`
	Flags        map[string]any `json:"flags"`
}

func (p *Progress) clone() *Progress {
	c := *p
	c.Flags = maps.Clone(p.Flags)
	if c.Flags == nil {
		c.Flags = map[string]any{}
	}
	return &c
}

// Manager holds every chronicle the player has started, keyed by chronicle ID.
// Operations on an unknown chronicle are no-ops. Safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	chronicles map[string]*Progress
}

func NewManager() *Manager {
	return &Manager{chronicles: make(map[string]*Progress)}
}

// Start begins (or restarts) a chronicle at the given stage.
func (m *Manager) Start(id, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chronicles[id] = &Progress{
		ChronicleID:  id,
		CurrentStage: stage,
		Flags:        map[string]any{},
	}
}

// Get returns a copy of a chronicle's progress.
func (m *Manager) Get(id string) (*Progress, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.chronicles[id]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

func (m *Manager) Complete(id string) {
	m.update(id, func(p *Progress) { p.Completed = true })
}

func (m *Manager) SetFlag(id, flag string, value any) {
	m.update(id, func(p *Progress) {
		if p.Flags == nil {
			p.Flags = map[string]any{}
		}
		p.Flags[flag] = value
	})
}

func (m *Manager) AdvanceStage(id, stage string) {
	m.update(id, func(p *Progress) { p.CurrentStage = stage })
}

func (m *Manager) update(id string, fn func(p *Progress)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.chronicles[id]; ok {
		fn(p)
	}
}

// All returns copies of every chronicle, ordered by ID.
func (m *Manager) All() []Progress {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Progress, 0, len(m.chronicles))
	for _, id := range slices.Sorted(maps.Keys(m.chronicles)) {
		out = append(out, *m.chronicles[id].clone())
	}
	return out
}

// Replace discards all progress and installs the given chronicles.
func (m *Manager) Replace(progress []Progress) {
	keyed := make(map[string]Progress, len(progress))
	for _, p := range progress {
		keyed[p.ChronicleID] = p
	}
	m.replaceKeyed(keyed)
}

func (m *Manager) replaceKeyed(progress map[string]Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chronicles = make(map[string]*Progress, len(progress))
	for key, p := range progress {
		m.chronicles[key] = p.clone()
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chronicles)
}

// MarshalJSON encodes progress as an object keyed the way it is tracked,
// which is the chronicle ID unless a loaded save said otherwise.
func (m *Manager) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	out := make(map[string]Progress, len(m.chronicles))
	for key, p := range m.chronicles {
		out[key] = *p.clone()
	}
	m.mu.RUnlock()
	return json.Marshal(out)
}

type savedProgress struct {
	ChronicleID  *string        `json:"chronicle_id"`
	CurrentStage *string        `json:"current_stage"`
	Completed    bool           `json:"completed"`
	Flags        map[string]any `json:"flags"`
}

// UnmarshalJSON replaces all progress with the decoded object. Entries are
// tracked under their object key even when chronicle_id differs. The
// completed and flags fields of each entry are optional.
func (m *Manager) UnmarshalJSON(data []byte) error {
	var saved map[string]savedProgress
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSave, err)
	}

	progress := make(map[string]Progress, len(saved))
	for key, entry := range saved {
		if entry.ChronicleID == nil || entry.CurrentStage == nil {
			return fmt.Errorf("%w: chronicle %q is missing chronicle_id or current_stage", ErrMalformedSave, key)
		}
		progress[key] = Progress{
			ChronicleID:  *entry.ChronicleID,
			CurrentStage: *entry.CurrentStage,
			Completed:    entry.Completed,
			Flags:        entry.Flags,
		}
	}
	m.replaceKeyed(progress)
	return nil
}

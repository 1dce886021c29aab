// Package tilemap loads tile-based area maps and answers collision queries
// against them.
package tilemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultName     = "Unknown Map"
	DefaultTileSize = 32
)

var (
	ErrMapNotFound  = errors.New("map not found")
	ErrMalformedMap = errors.New("malformed map")
)

// Map is a grid of square tiles. Positions in the document are grid
// coordinates [x, y]; world coordinates are grid coordinates times TileSize.
type Map struct {
	Name          string           `json:"name" yaml:"name"`
	Width         int              `json:"width" yaml:"width"`
	Height        int              `json:"height" yaml:"height"`
	TileSize      int              `json:"tile_size" yaml:"tile_size"`
	Layers        []map[string]any `json:"layers,omitempty" yaml:"layers,omitempty"`
	CollisionMask [][]int          `json:"collision_mask,omitempty" yaml:"collision_mask,omitempty"` // [y][x], 1 is blocked
	Collisions    [][2]int         `json:"collisions,omitempty" yaml:"collisions,omitempty"`         // Used when there is no mask
	NPCs          []NPC            `json:"npcs" yaml:"npcs"`
	Interactables []Interactable   `json:"interactables" yaml:"interactables"`
	Events        []Event          `json:"events" yaml:"events"`
}

type NPC struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Position [2]int `json:"position" yaml:"position"`
	Dialogue string `json:"dialogue,omitempty" yaml:"dialogue,omitempty"` // Dialogue document file
}

type Interactable struct {
	ID       string `json:"id" yaml:"id"`
	Position [2]int `json:"position" yaml:"position"`
	Type     string `json:"type" yaml:"type"`
	Action   string `json:"action,omitempty" yaml:"action,omitempty"`
}

type Event struct {
	ID      string `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	Trigger string `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// Rect is an axis-aligned rectangle in world coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether the point lies inside r. The right and bottom
// edges are exclusive.
func (r Rect) Contains(px, py int) bool {
	return r.X <= px && px < r.X+r.W && r.Y <= py && py < r.Y+r.H
}

type document struct {
	Name          *string          `json:"name" yaml:"name"`
	Width         *int             `json:"width" yaml:"width"`
	Height        *int             `json:"height" yaml:"height"`
	TileSize      *int             `json:"tile_size" yaml:"tile_size"`
	Layers        []map[string]any `json:"layers" yaml:"layers"`
	CollisionMask [][]int          `json:"collision_mask" yaml:"collision_mask"`
	Collisions    [][2]int         `json:"collisions" yaml:"collisions"`
	NPCs          []NPC            `json:"npcs" yaml:"npcs"`
	Interactables []Interactable   `json:"interactables" yaml:"interactables"`
	Events        []Event          `json:"events" yaml:"events"`
}

// Parse decodes a map document. YAML is used when yamlFormat is true.
// Width and height are required; name and tile size take defaults.
func Parse(data []byte, yamlFormat bool) (*Map, error) {
	var doc document
	var err error
	if yamlFormat {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMap, err)
	}

	if doc.Width == nil || doc.Height == nil {
		return nil, fmt.Errorf("%w: width and height are required", ErrMalformedMap)
	}

	m := &Map{
		Name:          DefaultName,
		Width:         *doc.Width,
		Height:        *doc.Height,
		TileSize:      DefaultTileSize,
		Layers:        doc.Layers,
		CollisionMask: doc.CollisionMask,
		Collisions:    doc.Collisions,
		NPCs:          doc.NPCs,
		Interactables: doc.Interactables,
		Events:        doc.Events,
	}
	if doc.Name != nil {
		m.Name = *doc.Name
	}
	if doc.TileSize != nil {
		m.TileSize = *doc.TileSize
	}
	if m.NPCs == nil {
		m.NPCs = []NPC{}
	}
	if m.Interactables == nil {
		m.Interactables = []Interactable{}
	}
	if m.Events == nil {
		m.Events = []Event{}
	}
	return m, nil
}

// Load reads a map file; .yaml and .yml files are parsed as YAML, anything
// else as JSON.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMapNotFound, path)
		}
		return nil, fmt.Errorf("failed to read map file %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	m, err := Parse(data, ext == ".yaml" || ext == ".yml")
	if err != nil {
		return nil, fmt.Errorf("failed to load map %s: %w", path, err)
	}
	return m, nil
}

// WorldPos returns the world-space rectangle of the tile at grid (x, y).
func (m *Map) WorldPos(x, y int) Rect {
	return Rect{X: x * m.TileSize, Y: y * m.TileSize, W: m.TileSize, H: m.TileSize}
}

// CollisionRects returns the world-space rectangles of the listed collision tiles.
func (m *Map) CollisionRects() []Rect {
	rects := make([]Rect, 0, len(m.Collisions))
	for _, c := range m.Collisions {
		rects = append(rects, m.WorldPos(c[0], c[1]))
	}
	return rects
}

// IsBlocked reports whether the tile at grid (x, y) blocks movement. A
// non-empty collision mask takes precedence over the collision list; tiles
// outside the mask are open.
func (m *Map) IsBlocked(x, y int) bool {
	if len(m.CollisionMask) > 0 {
		if y < 0 || y >= len(m.CollisionMask) || x < 0 || x >= len(m.CollisionMask[y]) {
			return false
		}
		return m.CollisionMask[y][x] == 1
	}

	px, py := x*m.TileSize, y*m.TileSize
	for _, r := range m.CollisionRects() {
		if r.Contains(px, py) {
			return true
		}
	}
	return false
}

// InBounds reports whether grid (x, y) lies within the map's width and height.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// Package dialogue runs branching conversations. A Graph is loaded from a
// JSON or YAML document; a Tree walks it for one player, hiding choices whose
// conditions fail and applying the effects of the choices taken to a game
// state owned by the caller.
package dialogue

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

// Graph is a loaded dialogue document. It is read-only once parsed and may be
// shared between any number of Trees.
type Graph struct {
	Start string          `json:"start" yaml:"start"`
	Nodes map[string]Node `json:"nodes" yaml:"nodes"`
}

// Node is one dialogue screen.
type Node struct {
	Text    string   `json:"text" yaml:"text"`
	Choices []Choice `json:"choices" yaml:"choices"` // Display and selection order
}

// Choice is an option the player may take. A nil Next ends the dialogue.
type Choice struct {
	Text      string     `json:"text" yaml:"text"`
	Next      *string    `json:"next" yaml:"next"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Effect    *Effect    `json:"effect,omitempty" yaml:"effect,omitempty"`
}

// Visible reports whether the choice is shown for the given state.
func (c Choice) Visible(st StateReader) bool {
	return c.Condition == nil || c.Condition.Evaluate(st)
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type document struct {
	Start *string         `json:"start" yaml:"start"`
	Nodes map[string]Node `json:"nodes" yaml:"nodes"`
}

// Parse decodes a dialogue document. Anything that does not decode, or that
// lacks start or nodes, is ErrMalformedDocument.
func Parse(data []byte, format Format) (*Graph, error) {
	var doc document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if doc.Start == nil {
		return nil, fmt.Errorf("%w: missing start", ErrMalformedDocument)
	}
	if doc.Nodes == nil {
		return nil, fmt.Errorf("%w: missing nodes", ErrMalformedDocument)
	}

	return &Graph{Start: *doc.Start, Nodes: doc.Nodes}, nil
}

// LoadGraph reads and parses a dialogue file.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to read dialogue file %s: %w", path, err)
	}

	g, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load dialogue %s: %w", path, err)
	}
	return g, nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	node, ok := g.Nodes[id]
	if !ok {
		return nil, false
	}
	return &node, true
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

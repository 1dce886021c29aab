package dialogue

import (
	"log/slog"
)

// Tree is one traversal of a Graph. It holds the current node and a reference
// to the game state it reads and mutates; the state stays owned by the caller.
// A Tree is not safe for concurrent use.
type Tree struct {
	graph   *Graph
	state   State
	current *string // nil once the dialogue is finished
	logger  *slog.Logger
}

// New starts a session at the graph's start node.
func New(graph *Graph, st State) *Tree {
	t := &Tree{
		graph: graph,
		state: st,
	}
	t.Reset()
	return t
}

// Load reads a dialogue document and starts a session on it.
func Load(path string, st State) (*Tree, error) {
	g, err := LoadGraph(path)
	if err != nil {
		return nil, err
	}
	return New(g, st), nil
}

// WithLogger enables debug logging of transitions.
// Returns the Tree for method chaining
func (t *Tree) WithLogger(logger *slog.Logger) *Tree {
	t.logger = logger
	return t
}

func (t *Tree) Graph() *Graph {
	return t.graph
}

// CurrentID returns the current node ID, or false once finished.
func (t *Tree) CurrentID() (string, bool) {
	if t.current == nil {
		return "", false
	}
	return *t.current, true
}

// CurrentNode returns the current node. It returns false when the dialogue is
// finished or the current ID is not in the graph.
func (t *Tree) CurrentNode() (*Node, bool) {
	if t.current == nil {
		return nil, false
	}
	return t.graph.Node(*t.current)
}

// Choices returns the current node's choices whose conditions hold, in
// document order.
func (t *Tree) Choices() []Choice {
	node, ok := t.CurrentNode()
	if !ok {
		return nil
	}

	var visible []Choice
	for _, choice := range node.Choices {
		if choice.Visible(t.state) {
			visible = append(visible, choice)
		}
	}
	return visible
}

// Advance takes the choice at index among the visible choices. An index
// outside the visible choices ends the dialogue and returns nil; callers are
// expected to pass indices from a prior Choices call. Otherwise the choice's
// effect is applied and the session moves to its next node, or finishes if
// next is absent or not in the graph.
func (t *Tree) Advance(index int) *Choice {
	choices := t.Choices()
	if len(choices) == 0 || index < 0 || index >= len(choices) {
		t.debug("Dialogue ended by invalid choice", "index", index, "visible", len(choices))
		t.current = nil
		return nil
	}

	choice := choices[index]
	choice.Effect.Apply(t.state)

	from, _ := t.CurrentID()
	if choice.Next != nil && t.graph.HasNode(*choice.Next) {
		next := *choice.Next
		t.current = &next
	} else {
		t.current = nil
	}

	to, _ := t.CurrentID()
	t.debug("Dialogue advanced", "from", from, "to", to, "choice", choice.Text, "finished", t.IsFinished())
	return &choice
}

func (t *Tree) IsFinished() bool {
	return t.current == nil
}

// Reset rewinds to the start node. Effects already applied stay applied.
func (t *Tree) Reset() {
	start := t.graph.Start
	t.current = &start
}

// Seek places the session at id without applying any effects, used to resume
// a persisted session. An id that is not in the graph finishes the session.
func (t *Tree) Seek(id string) {
	if !t.graph.HasNode(id) {
		t.current = nil
		return
	}
	t.current = &id
}

// Finish ends the session without taking a choice.
func (t *Tree) Finish() {
	t.current = nil
}

func (t *Tree) debug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}

package dialogue

import "sort"

// Effect is the declarative state change carried by a choice. Each key is
// optional and unrecognized keys are ignored when decoding.
type Effect struct {
	Faction    map[string]int `json:"faction,omitempty" yaml:"faction,omitempty"`         // Faction → standing delta
	AddItem    *string        `json:"add_item,omitempty" yaml:"add_item,omitempty"`       // Appended to inventory
	RemoveItem *string        `json:"remove_item,omitempty" yaml:"remove_item,omitempty"` // Removed if present
	SetFlag    map[string]any `json:"set_flag,omitempty" yaml:"set_flag,omitempty"`       // Flag → value
}

// Op is a single state mutation produced from an Effect.
type Op interface {
	Apply(w StateWriter)
}

type AdjustStanding struct {
	Faction string
	Delta   int
}

func (o AdjustStanding) Apply(w StateWriter) { w.AdjustStanding(o.Faction, o.Delta) }

type AddItem struct {
	Item string
}

func (o AddItem) Apply(w StateWriter) { w.AddItem(o.Item) }

type RemoveItem struct {
	Item string
}

func (o RemoveItem) Apply(w StateWriter) { w.RemoveItem(o.Item) }

type SetFlag struct {
	Name  string
	Value any
}

func (o SetFlag) Apply(w StateWriter) { w.SetFlag(o.Name, o.Value) }

// Ops lowers the effect to its operations: faction changes, then add_item,
// then remove_item, then set_flag. Map-valued keys are emitted in name order.
func (e *Effect) Ops() []Op {
	if e == nil {
		return nil
	}

	var ops []Op
	for _, faction := range sortedKeys(e.Faction) {
		ops = append(ops, AdjustStanding{Faction: faction, Delta: e.Faction[faction]})
	}
	if e.AddItem != nil {
		ops = append(ops, AddItem{Item: *e.AddItem})
	}
	if e.RemoveItem != nil {
		ops = append(ops, RemoveItem{Item: *e.RemoveItem})
	}
	for _, flag := range sortedKeys(e.SetFlag) {
		ops = append(ops, SetFlag{Name: flag, Value: e.SetFlag[flag]})
	}
	return ops
}

// Apply runs every operation of the effect against w.
func (e *Effect) Apply(w StateWriter) {
	for _, op := range e.Ops() {
		op.Apply(w)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package dialogue

// StateReader is the read side of the game state that conditions are evaluated against.
type StateReader interface {
	HasItem(item string) bool
	FlagSet(name string) bool
	Standing(faction string) int
}

// StateWriter is the write side of the game state that effects are applied to.
type StateWriter interface {
	AddItem(item string)
	RemoveItem(item string)
	SetFlag(name string, value any)
	AdjustStanding(faction string, delta int)
}

// State is the externally owned game state a Tree runs against.
// *state.GameState satisfies it.
type State interface {
	StateReader
	StateWriter
}

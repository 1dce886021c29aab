package state

import (
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
)

// GameState is the player's progress that dialogue effects read and write:
// inventory, flags and faction standings. It is owned by the caller and shared
// by reference with any dialogue session that runs against it.
type GameState struct {
	ID        uuid.UUID      `json:"id"`
	Inventory []string       `json:"inventory,omitempty"` // Item IDs; duplicates are allowed
	Flags     map[string]any `json:"flags,omitempty"`     // Flag name → value (usually bool)
	Factions  map[string]int `json:"factions,omitempty"`  // Faction name → standing
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewGameState() *GameState {
	now := time.Now()
	return &GameState{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasItem reports whether the item ID is literally present in the inventory.
func (gs *GameState) HasItem(item string) bool {
	return slices.Contains(gs.Inventory, item)
}

// FlagSet reports whether the flag is present and truthy.
func (gs *GameState) FlagSet(name string) bool {
	v, ok := gs.Flags[name]
	if !ok {
		return false
	}
	return Truthy(v)
}

// Flag returns the raw value of a flag.
func (gs *GameState) Flag(name string) (any, bool) {
	v, ok := gs.Flags[name]
	return v, ok
}

// Standing returns the faction standing; unknown factions stand at 0.
func (gs *GameState) Standing(faction string) int {
	return gs.Factions[faction]
}

func (gs *GameState) AddItem(item string) {
	if gs.Inventory == nil {
		gs.Inventory = make([]string, 0)
	}
	gs.Inventory = append(gs.Inventory, item)
}

// RemoveItem removes the first occurrence of item. Removing an item that is
// not held is a no-op.
func (gs *GameState) RemoveItem(item string) {
	for i, invItem := range gs.Inventory {
		if invItem == item {
			gs.Inventory = append(gs.Inventory[:i], gs.Inventory[i+1:]...)
			return
		}
	}
}

func (gs *GameState) SetFlag(name string, value any) {
	if gs.Flags == nil {
		gs.Flags = make(map[string]any)
	}
	gs.Flags[name] = value
}

// AdjustStanding adds delta to a faction's standing, starting from 0.
func (gs *GameState) AdjustStanding(faction string, delta int) {
	if gs.Factions == nil {
		gs.Factions = make(map[string]int)
	}
	gs.Factions[faction] += delta
}

// Truthy applies loose truthiness to a flag value: nil, false, zero numbers,
// empty strings and empty collections are false; everything else is true.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

package dialogue

import (
	"encoding/json"
	"testing"

	"github.com/jwebster45206/chronicle-rpg/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		raw      string
		expected Condition
	}{
		{"has_secret_data", Condition{Kind: ConditionHasItem, Item: "secret_data", Raw: "has_secret_data"}},
		{"flag_trusted", Condition{Kind: ConditionFlagSet, Flag: "trusted", Raw: "flag_trusted"}},
		{"flag_mission_accepted", Condition{Kind: ConditionFlagSet, Flag: "mission_accepted", Raw: "flag_mission_accepted"}},
		{"faction_Caldari_5", Condition{Kind: ConditionFactionAtLeast, Faction: "Caldari", Threshold: 5, Raw: "faction_Caldari_5"}},
		{"faction_Amarr_-3", Condition{Kind: ConditionFactionAtLeast, Faction: "Amarr", Threshold: -3, Raw: "faction_Amarr_-3"}},
		{"faction_Caldari_5_extra", Condition{Kind: ConditionFactionAtLeast, Faction: "Caldari", Threshold: 5, Raw: "faction_Caldari_5_extra"}},
		{"faction_Caldari", Condition{Kind: ConditionUnknown, Raw: "faction_Caldari"}},
		{"faction_Caldari_high", Condition{Kind: ConditionUnknown, Raw: "faction_Caldari_high"}},
		{"is_docked", Condition{Kind: ConditionUnknown, Raw: "is_docked"}},
		{"", Condition{Kind: ConditionUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCondition(tt.raw))
		})
	}
}

// Faction names are taken from the second underscore segment only, so names
// that themselves contain underscores cannot be expressed.
func TestParseCondition_FactionNameWithUnderscore(t *testing.T) {
	c := ParseCondition("faction_Caldari_Navy_5")
	assert.Equal(t, ConditionUnknown, c.Kind)

	gs := &state.GameState{Factions: map[string]int{"Caldari_Navy": 100}}
	assert.False(t, c.Evaluate(gs))
}

func TestCondition_Evaluate(t *testing.T) {
	gs := &state.GameState{
		Inventory: []string{"secret_data"},
		Flags:     map[string]any{"trusted": true, "docked": false},
		Factions:  map[string]int{"Caldari": 5, "Amarr": -4},
	}

	tests := []struct {
		raw      string
		expected bool
	}{
		{"has_secret_data", true},
		{"has_supply_contract", false},
		{"flag_trusted", true},
		{"flag_docked", false},
		{"flag_unknown", false},
		{"faction_Caldari_5", true},
		{"faction_Caldari_6", false},
		{"faction_Amarr_-5", true},
		{"faction_Gallente_0", true},
		{"faction_Gallente_1", false},
		{"faction_Caldari", false},
		{"mystery_tag", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCondition(tt.raw).Evaluate(gs))
		})
	}
}

func TestCondition_Constructors(t *testing.T) {
	assert.Equal(t, ParseCondition("has_datacore"), NewHasItem("datacore"))
	assert.Equal(t, ParseCondition("flag_trusted"), NewFlagSet("trusted"))
	assert.Equal(t, ParseCondition("faction_Minmatar_3"), NewFactionAtLeast("Minmatar", 3))
}

func TestCondition_String(t *testing.T) {
	assert.Equal(t, "faction_Caldari_5", Condition{Kind: ConditionFactionAtLeast, Faction: "Caldari", Threshold: 5}.String())
	assert.Equal(t, "has_map", Condition{Kind: ConditionHasItem, Item: "map"}.String())
	assert.Equal(t, "whatever", ParseCondition("whatever").String())
}

func TestCondition_JSON(t *testing.T) {
	var choice Choice
	require.NoError(t, json.Unmarshal([]byte(`{"text": "x", "condition": "faction_Caldari_5"}`), &choice))
	require.NotNil(t, choice.Condition)
	assert.Equal(t, ConditionFactionAtLeast, choice.Condition.Kind)

	data, err := json.Marshal(choice)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"condition":"faction_Caldari_5"`)

	err = json.Unmarshal([]byte(`{"text": "x", "condition": {"kind": "has_item"}}`), &choice)
	assert.Error(t, err)
}

func TestCondition_YAML(t *testing.T) {
	var choice Choice
	require.NoError(t, yaml.Unmarshal([]byte("text: x\ncondition: has_secret_data\n"), &choice))
	require.NotNil(t, choice.Condition)
	assert.Equal(t, NewHasItem("secret_data"), *choice.Condition)

	err := yaml.Unmarshal([]byte("text: x\ncondition:\n  - has_secret_data\n"), &choice)
	assert.Error(t, err)
}

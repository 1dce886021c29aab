package dialogue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ConditionKind string

const (
	ConditionHasItem        ConditionKind = "has_item"
	ConditionFlagSet        ConditionKind = "flag_set"
	ConditionFactionAtLeast ConditionKind = "faction_at_least"
	ConditionUnknown        ConditionKind = "unknown" // Never satisfied
)

const (
	hasItemPrefix = "has_"
	flagPrefix    = "flag_"
	factionPrefix = "faction_"
)

// Condition gates the visibility of a choice. In documents it is written as a
// string tag (has_<item>, flag_<name>, faction_<Name>_<N>); ParseCondition is
// the only place that grammar is interpreted.
type Condition struct {
	Kind      ConditionKind
	Item      string // ConditionHasItem
	Flag      string // ConditionFlagSet
	Faction   string // ConditionFactionAtLeast
	Threshold int    // ConditionFactionAtLeast
	Raw       string // Tag as written in the document
}

func NewHasItem(item string) Condition {
	return Condition{Kind: ConditionHasItem, Item: item, Raw: hasItemPrefix + item}
}

func NewFlagSet(name string) Condition {
	return Condition{Kind: ConditionFlagSet, Flag: name, Raw: flagPrefix + name}
}

// NewFactionAtLeast builds a standing threshold condition. The faction name
// must not contain underscores or the tag will not parse back to the same
// condition.
func NewFactionAtLeast(faction string, threshold int) Condition {
	return Condition{
		Kind:      ConditionFactionAtLeast,
		Faction:   faction,
		Threshold: threshold,
		Raw:       fmt.Sprintf("%s%s_%d", factionPrefix, faction, threshold),
	}
}

// ParseCondition interprets a condition tag by prefix. Tags that do not match
// the grammar parse to ConditionUnknown rather than failing.
//
// For faction tags the name and threshold are the second and third
// underscore-delimited segments, so "faction_Caldari_Navy_5" reads as faction
// "Caldari" with threshold "Navy" and is unknown.
func ParseCondition(raw string) Condition {
	switch {
	case strings.HasPrefix(raw, hasItemPrefix):
		return Condition{Kind: ConditionHasItem, Item: raw[len(hasItemPrefix):], Raw: raw}
	case strings.HasPrefix(raw, flagPrefix):
		return Condition{Kind: ConditionFlagSet, Flag: raw[len(flagPrefix):], Raw: raw}
	case strings.HasPrefix(raw, factionPrefix):
		parts := strings.Split(raw, "_")
		if len(parts) < 3 {
			break
		}
		threshold, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			break
		}
		return Condition{Kind: ConditionFactionAtLeast, Faction: parts[1], Threshold: threshold, Raw: raw}
	}
	return Condition{Kind: ConditionUnknown, Raw: raw}
}

// Evaluate reports whether the condition holds. It never mutates the state.
func (c Condition) Evaluate(st StateReader) bool {
	switch c.Kind {
	case ConditionHasItem:
		return st.HasItem(c.Item)
	case ConditionFlagSet:
		return st.FlagSet(c.Flag)
	case ConditionFactionAtLeast:
		return st.Standing(c.Faction) >= c.Threshold
	default:
		return false
	}
}

func (c Condition) String() string {
	if c.Raw != "" {
		return c.Raw
	}
	switch c.Kind {
	case ConditionHasItem:
		return hasItemPrefix + c.Item
	case ConditionFlagSet:
		return flagPrefix + c.Flag
	case ConditionFactionAtLeast:
		return fmt.Sprintf("%s%s_%d", factionPrefix, c.Faction, c.Threshold)
	}
	return ""
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("condition must be a string: %w", err)
	}
	*c = ParseCondition(raw)
	return nil
}

func (c Condition) MarshalYAML() (any, error) {
	return c.String(), nil
}

func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("condition must be a string, line %d", value.Line)
	}
	*c = ParseCondition(value.Value)
	return nil
}

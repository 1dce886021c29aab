package state

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns an identifier such as "supply_contract" into "Supply Contract".
func DisplayName(id string) string {
	titleCaser := cases.Title(language.English)
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

func (gs *GameState) DescribeInventory() string {
	if len(gs.Inventory) == 0 {
		return "Your inventory is empty."
	}
	names := make([]string, 0, len(gs.Inventory))
	for _, item := range gs.Inventory {
		names = append(names, DisplayName(item))
	}
	return "You have:\n- " + strings.Join(names, "\n- ")
}

// DescribeStandings lists faction standings sorted by faction name.
func (gs *GameState) DescribeStandings() string {
	if len(gs.Factions) == 0 {
		return "No faction standings."
	}
	factions := make([]string, 0, len(gs.Factions))
	for name := range gs.Factions {
		factions = append(factions, name)
	}
	sort.Strings(factions)

	lines := make([]string, 0, len(factions))
	for _, name := range factions {
		lines = append(lines, fmt.Sprintf("%s: %+d", name, gs.Factions[name]))
	}
	return strings.Join(lines, "\n")
}

package dialogue

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Issue is a structural problem found by Lint. None of these stop a document
// from loading; at runtime they degrade to hidden choices or an ended dialogue.
type Issue struct {
	NodeID  string `json:"node_id"`
	Choice  int    `json:"choice"` // -1 when the issue is about the node itself
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Choice < 0 {
		return fmt.Sprintf("node %q: %s", i.NodeID, i.Message)
	}
	return fmt.Sprintf("node %q choice %d: %s", i.NodeID, i.Choice, i.Message)
}

var validNodeIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

// Lint reports nodes and choices that will not behave as an author likely
// intended. Issues are sorted by node ID then choice index.
func (g *Graph) Lint() []Issue {
	var issues []Issue

	if !g.HasNode(g.Start) {
		issues = append(issues, Issue{NodeID: g.Start, Choice: -1, Message: "start node does not exist"})
	}

	for id, node := range g.Nodes {
		if !validNodeIDRegex.MatchString(id) {
			issues = append(issues, Issue{NodeID: id, Choice: -1, Message: "node ID should be lowercase snake_case"})
		}
		for i, choice := range node.Choices {
			if choice.Next != nil && !g.HasNode(*choice.Next) {
				issues = append(issues, Issue{NodeID: id, Choice: i,
					Message: fmt.Sprintf("next %q does not exist and will end the dialogue", *choice.Next)})
			}
			if choice.Condition != nil {
				issues = append(issues, lintCondition(id, i, *choice.Condition)...)
			}
		}
	}

	sort.Slice(issues, func(a, b int) bool {
		if issues[a].NodeID != issues[b].NodeID {
			return issues[a].NodeID < issues[b].NodeID
		}
		return issues[a].Choice < issues[b].Choice
	})
	return issues
}

func lintCondition(nodeID string, index int, c Condition) []Issue {
	var issues []Issue
	switch c.Kind {
	case ConditionUnknown:
		issues = append(issues, Issue{NodeID: nodeID, Choice: index,
			Message: fmt.Sprintf("condition %q is not recognized and hides the choice", c.Raw)})
	case ConditionFactionAtLeast:
		// Extra segments are ignored by the parser, usually a faction name with underscores.
		if strings.Count(c.Raw, "_") > 2 {
			issues = append(issues, Issue{NodeID: nodeID, Choice: index,
				Message: fmt.Sprintf("condition %q reads as faction %q threshold %d", c.Raw, c.Faction, c.Threshold)})
		}
	}
	return issues
}

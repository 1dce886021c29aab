package runner

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/handlers"
)

// TestSuite defines a complete scripted playthrough
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name          string                    `json:"name"`
	Dialogue      string                    `json:"dialogue,omitempty"`        // Used for regular tests
	SeedGameState handlers.GameStateRequest `json:"seed_game_state,omitempty"` // Used for regular tests
	Steps         []TestStep                `json:"steps,omitempty"`           // Used for regular tests
	Cases         []string                  `json:"cases,omitempty"`           // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one action against the session: a choice or a reset.
// Async steps go through the request queue and wait for a worker.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Choice       *int         `json:"choice,omitempty"`
	Reset        bool         `json:"reset,omitempty"`
	Async        bool         `json:"async,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Session position
	NodeID      *string  `json:"node_id,omitempty"`
	Finished    *bool    `json:"finished,omitempty"`
	ChoiceCount *int     `json:"choice_count,omitempty"` // Visible choices only
	Choices     []string `json:"choices,omitempty"`      // Visible choice texts, in order

	// GameState properties - aligned with pkg/state/gamestate.go
	Inventory []string       `json:"inventory,omitempty"` // Full inventory contents (order independent)
	Flags     map[string]any `json:"flags,omitempty"`
	Factions  map[string]int `json:"factions,omitempty"`

	// Node text analysis
	TextContains    []string `json:"text_contains,omitempty"`
	TextNotContains []string `json:"text_not_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName  string
	StepName  string
	Success   bool
	Error     error
	Duration  time.Duration
	NodeText  string
	RequestID string // Set for async steps
	IsReset   bool
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	Error     error
	Duration  time.Duration
	GameState uuid.UUID // ID of the gamestate used for this test
	Session   uuid.UUID
}

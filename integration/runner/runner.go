package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/internal/handlers"
	"github.com/jwebster45206/chronicle-rpg/internal/services/sessions"
	"github.com/jwebster45206/chronicle-rpg/pkg/state"
	"gopkg.in/yaml.v3"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays scripted dialogue sessions against a running chronicle-rpg API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration // Max wait for an async step
	PollInterval      time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	DialogueOverride  string // If set, overrides the dialogue for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           AsyncTimeout,
		PollInterval:      PollInterval,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON or YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		// Round-trip through JSON so the json tags drive field names
		var raw map[string]any
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
		}
		if content, err = json.Marshal(raw); err != nil {
			return TestSuite{}, fmt.Errorf("failed to convert %s: %w", filename, err)
		}
	}
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite seeds a game state, opens a session on the suite's dialogue and
// plays each step in order.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	gameStateID, err := r.seedGameState(ctx, suite.SeedGameState)
	if err != nil {
		result.Error = fmt.Errorf("failed to seed gamestate: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.GameState = gameStateID

	dialogueFile := suite.Dialogue
	if r.DialogueOverride != "" {
		dialogueFile = r.DialogueOverride
	}
	current, err := r.startSession(ctx, dialogueFile, gameStateID)
	if err != nil {
		result.Error = fmt.Errorf("failed to start session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = current.Session.ID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult, next := r.runStep(ctx, current, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
		} else {
			r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
		}

		if next != nil {
			current = next
		}
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// seedGameState creates a new gamestate carrying the seed data
func (r *Runner) seedGameState(ctx context.Context, seed handlers.GameStateRequest) (uuid.UUID, error) {
	var created state.GameState
	if err := doJSON(ctx, r.Client, http.MethodPost, r.BaseURL+"/v1/gamestate", seed, http.StatusCreated, &created); err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

func (r *Runner) startSession(ctx context.Context, dialogueFile string, gameStateID uuid.UUID) (*sessions.Result, error) {
	var res sessions.Result
	body := handlers.CreateSessionRequest{Dialogue: dialogueFile, GameStateID: gameStateID}
	if err := doJSON(ctx, r.Client, http.MethodPost, r.BaseURL+"/v1/sessions", body, http.StatusCreated, &res); err != nil {
		return nil, err
	}
	if res.Session == nil {
		return nil, fmt.Errorf("session missing from response")
	}
	return &res, nil
}

// runStep executes one step and checks its expectations. It returns the
// session result the step produced, or nil if the step never ran.
func (r *Runner) runStep(ctx context.Context, current *sessions.Result, step TestStep) (TestResult, *sessions.Result) {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
		IsReset:  step.Reset,
	}

	if !step.Reset && step.Choice == nil {
		result.Error = fmt.Errorf("step needs either a choice or reset")
		return result, nil
	}

	var (
		next *sessions.Result
		err  error
	)
	if step.Async {
		next, result.RequestID, err = r.executeAsync(ctx, current, step)
	} else {
		next, err = r.executeSync(ctx, current, step)
	}
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result, nil
	}
	result.NodeText = next.View.Text

	if err := checkExpectations(step.Expectations, next); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		return result, next
	}

	result.Success = true
	return result, next
}

func (r *Runner) executeSync(ctx context.Context, current *sessions.Result, step TestStep) (*sessions.Result, error) {
	base := fmt.Sprintf("%s/v1/sessions/%s", r.BaseURL, current.Session.ID.String())

	var res sessions.Result
	if step.Reset {
		if err := doJSON(ctx, r.Client, http.MethodPost, base+"/reset", nil, http.StatusOK, &res); err != nil {
			return nil, fmt.Errorf("failed to reset session: %w", err)
		}
		return &res, nil
	}

	body := handlers.AdvanceRequest{Choice: step.Choice}
	if err := doJSON(ctx, r.Client, http.MethodPost, base+"/advance", body, http.StatusOK, &res); err != nil {
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}
	return &res, nil
}

func (r *Runner) executeAsync(ctx context.Context, current *sessions.Result, step TestStep) (*sessions.Result, string, error) {
	requestID, err := PostEnqueue(ctx, r.Client, r.BaseURL, current.Session.ID, handlers.EnqueueRequest{
		Choice: step.Choice,
		Reset:  step.Reset,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to enqueue: %w", err)
	}

	res, err := PollForSessionUpdate(ctx, r.Client, r.BaseURL, current.Session.ID, current.Session.UpdatedAt, r.PollInterval, r.Timeout)
	if err != nil {
		return nil, requestID, fmt.Errorf("failed to poll for request %s: %w", requestID, err)
	}
	return res, requestID, nil
}

// checkExpectations validates the step expectations against the session result
func checkExpectations(exp Expectations, res *sessions.Result) error {
	view := res.View

	if exp.NodeID != nil && view.NodeID != *exp.NodeID {
		return fmt.Errorf("expected node %q, got %q", *exp.NodeID, view.NodeID)
	}

	if exp.Finished != nil && view.Finished != *exp.Finished {
		return fmt.Errorf("expected finished to be %t, got %t", *exp.Finished, view.Finished)
	}

	if exp.ChoiceCount != nil && len(view.Choices) != *exp.ChoiceCount {
		return fmt.Errorf("expected %d visible choices, got %d", *exp.ChoiceCount, len(view.Choices))
	}

	if exp.Choices != nil {
		var texts []string
		for _, c := range view.Choices {
			texts = append(texts, c.Text)
		}
		if !slices.Equal(texts, exp.Choices) {
			return fmt.Errorf("expected choices %v, got %v", exp.Choices, texts)
		}
	}

	gs := res.GameState
	if gs == nil {
		gs = &state.GameState{}
	}

	// Full inventory check (order independent, duplicates count)
	if exp.Inventory != nil {
		expected := slices.Clone(exp.Inventory)
		actual := slices.Clone(gs.Inventory)
		slices.Sort(expected)
		slices.Sort(actual)
		if !slices.Equal(expected, actual) {
			return fmt.Errorf("expected inventory %v, got %v", exp.Inventory, gs.Inventory)
		}
	}

	for name, expectedValue := range exp.Flags {
		actualValue, exists := gs.Flag(name)
		if !exists {
			return fmt.Errorf("expected flag %s to be set, but it doesn't exist", name)
		}
		// Both sides come from JSON, so compare their printed forms
		if fmt.Sprint(actualValue) != fmt.Sprint(expectedValue) {
			return fmt.Errorf("expected flag %s to be %v, got %v", name, expectedValue, actualValue)
		}
	}

	for faction, expectedStanding := range exp.Factions {
		if got := gs.Standing(faction); got != expectedStanding {
			return fmt.Errorf("expected %s standing %d, got %d", faction, expectedStanding, got)
		}
	}

	lowerText := strings.ToLower(view.Text)
	for _, expectedText := range exp.TextContains {
		if !strings.Contains(lowerText, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected node text to contain '%s', got %q", expectedText, view.Text)
		}
	}
	for _, unexpectedText := range exp.TextNotContains {
		if strings.Contains(lowerText, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected node text to NOT contain '%s', but it did", unexpectedText)
		}
	}

	return nil
}

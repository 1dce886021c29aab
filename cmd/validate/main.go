package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dialogue.json|dialogue.yaml>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &DialogueValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, w := range validator.warnings {
			fmt.Println(w)
		}
		fmt.Printf("%s is valid (%d warnings)\n", filename, len(validator.warnings))
	}

	if failed {
		os.Exit(1)
	}
}

// DialogueValidator checks a dialogue document. Schema and decoding problems
// are errors; structural lint findings are warnings.
type DialogueValidator struct {
	errors   []string
	warnings []string
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func (v *DialogueValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(baseName))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("dialogue file must have .json, .yaml or .yml extension: %s", baseName)
	}
	if !validFilenameRegex.MatchString(strings.TrimSuffix(baseName, filepath.Ext(baseName))) {
		return fmt.Errorf("dialogue filename '%s' must be lowercase snake_case (e.g., station_contact.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil
	v.warnings = nil
	v.validateDocument(data, dialogue.FormatFromPath(filename))

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *DialogueValidator) validateDocument(data []byte, format dialogue.Format) {
	if err := dialogue.ValidateDocument(data, format); err != nil {
		v.addError(err.Error())
		return
	}

	g, err := dialogue.Parse(data, format)
	if err != nil {
		v.addError(err.Error())
		return
	}

	for _, issue := range g.Lint() {
		v.addWarning(issue.String())
	}
}

func (v *DialogueValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *DialogueValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  ! "+msg)
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name          string
		filename      string
		content       string
		expectErr     bool
		errContains   string
		warningsCount int
	}{
		{
			name:     "valid json",
			filename: "station_contact.json",
			content: `{"start": "greeting", "nodes": {
				"greeting": {"text": "Hi.", "choices": [{"text": "Bye.", "next": null}]}
			}}`,
		},
		{
			name:     "valid yaml",
			filename: "station_contact.yaml",
			content: `start: greeting
nodes:
  greeting:
    text: Hi.
    choices:
      - text: Bye.
        next: null
`,
		},
		{
			name:     "lint warnings only",
			filename: "warnings.json",
			content: `{"start": "greeting", "nodes": {
				"greeting": {"text": "Hi.", "choices": [
					{"text": "Go.", "next": "nowhere"},
					{"text": "Odd.", "next": null, "condition": "level_5"},
					{"text": "Navy.", "next": null, "condition": "faction_Caldari_Navy_5"}
				]},
				"BadNode": {"text": "", "choices": []}
			}}`,
			warningsCount: 4,
		},
		{
			name:        "missing start",
			filename:    "no_start.json",
			content:     `{"nodes": {}}`,
			expectErr:   true,
			errContains: "start",
		},
		{
			name:        "wrong types",
			filename:    "bad_types.json",
			content:     `{"start": "a", "nodes": {"a": {"text": 5, "choices": []}}}`,
			expectErr:   true,
			errContains: "malformed",
		},
		{
			name:        "non-integer faction delta",
			filename:    "bad_effect.json",
			content:     `{"start": "a", "nodes": {"a": {"text": "x", "choices": [{"text": "y", "next": null, "effect": {"faction": {"Navy": 1.5}}}]}}}`,
			expectErr:   true,
			errContains: "malformed",
		},
		{
			name:        "bad extension",
			filename:    "dialogue.txt",
			content:     `{}`,
			expectErr:   true,
			errContains: "extension",
		},
		{
			name:        "bad filename",
			filename:    "Station-Contact.json",
			content:     `{}`,
			expectErr:   true,
			errContains: "snake_case",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.filename, tt.content)
			v := &DialogueValidator{}
			err := v.validateFile(path)
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Len(t, v.warnings, tt.warningsCount, "%v", v.warnings)
		})
	}
}

func TestValidateFile_Missing(t *testing.T) {
	v := &DialogueValidator{}
	err := v.validateFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

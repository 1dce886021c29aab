package dialogue

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the compiled JSON schema for dialogue documents.
func Schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("dialogue.schema.json", schemaJSON)
	})
	return compiledSchema, schemaErr
}

// ValidateSchema checks a decoded document (as produced by json.Unmarshal
// into any) against the dialogue schema.
func ValidateSchema(doc any) error {
	s, err := Schema()
	if err != nil {
		return fmt.Errorf("failed to compile dialogue schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return nil
}

// ValidateDocument decodes raw document bytes and checks them against the
// schema. YAML documents are converted to their JSON form first.
func ValidateDocument(data []byte, format Format) error {
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		data = converted
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return ValidateSchema(doc)
}

package dialogue

import "errors"

var (
	// ErrResourceNotFound is returned when a dialogue document does not exist.
	ErrResourceNotFound = errors.New("dialogue resource not found")

	// ErrMalformedDocument is returned when a dialogue document cannot be parsed
	// or lacks the start/nodes fields.
	ErrMalformedDocument = errors.New("malformed dialogue document")
)

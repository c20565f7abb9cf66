package repository

import "errors"

var (
	// ErrNotFound is returned when a named document has never been written.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when a document changed since it was last read.
	ErrConflict = errors.New("conflict: document was modified concurrently")

	// ErrInvalidInput is returned for a document without a name.
	ErrInvalidInput = errors.New("invalid document")
)

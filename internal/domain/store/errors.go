package store

import "errors"

var (
	// ErrInvalidFormat indicates persisted bytes that cannot be parsed.
	ErrInvalidFormat = errors.New("invalid sessions format")
	// ErrDuplicateName indicates a sibling with the same name already exists.
	ErrDuplicateName = errors.New("a node with that name already exists in this folder")
	// ErrInvalidInput indicates rejected user input in the creation flow.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotSession indicates an open request addressed to a folder.
	ErrNotSession = errors.New("node is not a session")
)

package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a path that does not resolve in the tree.
	ErrNotFound = errors.New("node not found")
	// ErrInvalidSessions indicates a document that violates the tree shape.
	ErrInvalidSessions = errors.New("invalid sessions")
	// ErrNavigationDone indicates an event sent to a finished navigation.
	ErrNavigationDone = errors.New("navigation already finished")
	// ErrInvalidEvent indicates an event the current navigation mode does not accept.
	ErrInvalidEvent = errors.New("invalid navigation event")
)

// ValidationError reports the first structural violation found.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid sessions: %s", e.Reason)
	}
	return fmt.Sprintf("invalid sessions at %s: %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSessions
}

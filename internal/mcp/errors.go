package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/quickssh/internal/codec"
	"github.com/ganot/quickssh/internal/domain/store"
	"github.com/ganot/quickssh/internal/domain/tree"
	"github.com/ganot/quickssh/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Details carries the
// wrapped error text so callers see which node or field was at fault.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var mapped *APIError
	switch {
	case errors.Is(err, tree.ErrNotFound):
		mapped = &APIError{Code: "NODE_NOT_FOUND", Message: "node not found", RecoveryHint: "Call list_sessions to see valid paths"}
	case errors.Is(err, tree.ErrInvalidSessions):
		mapped = &APIError{Code: "INVALID_SESSIONS", Message: "sessions document is invalid", RecoveryHint: "Fix the sessions file, then call reload_sessions"}
	case errors.Is(err, store.ErrInvalidFormat):
		mapped = &APIError{Code: "INVALID_FORMAT", Message: "sessions document cannot be parsed", RecoveryHint: "Fix the sessions file, then call reload_sessions"}
	case errors.Is(err, store.ErrDuplicateName):
		mapped = &APIError{Code: "DUPLICATE_NAME", Message: "name already used in this folder", RecoveryHint: "Pick another name"}
	case errors.Is(err, store.ErrInvalidInput):
		mapped = &APIError{Code: "INVALID_INPUT", Message: "invalid input"}
	case errors.Is(err, store.ErrNotSession):
		mapped = &APIError{Code: "NOT_A_SESSION", Message: "node is a folder", RecoveryHint: "Address a session"}
	case errors.Is(err, codec.ErrDecode):
		mapped = &APIError{Code: "DECODE_FAILED", Message: "stored password cannot be decoded", RecoveryHint: "Check the codec key material"}
	case errors.Is(err, codec.ErrUnencodable):
		mapped = &APIError{Code: "UNENCODABLE", Message: "password contains characters the codec cannot encode"}
	case errors.Is(err, tree.ErrNavigationDone):
		mapped = &APIError{Code: "NAVIGATION_DONE", Message: "navigation already finished", RecoveryHint: "Call begin_navigation again"}
	case errors.Is(err, tree.ErrInvalidEvent):
		mapped = &APIError{Code: "INVALID_EVENT", Message: "event not valid here"}
	case errors.Is(err, errNavigationNotFound):
		mapped = &APIError{Code: "NAVIGATION_NOT_FOUND", Message: "navigation not found", RecoveryHint: "Call begin_navigation first"}
	case errors.Is(err, repository.ErrConflict):
		mapped = &APIError{Code: "CONFLICT", Message: "sessions modified concurrently", RecoveryHint: "Retry the operation"}
	default:
		return nil
	}
	mapped.Details = err.Error()
	return mapped
}

var errNavigationNotFound = errors.New("navigation not found")

package queue

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyQueued     = errors.New("patient already has an active appointment")
	ErrNotQueued         = errors.New("patient is not in the current queue")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError is raised locally, before any network call, when a
// transition's inputs fail the business rules.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Msg)
}

// AuthorizationError is a server-side denial the actor cannot retry past,
// such as rejecting an appointment that belongs to a different campus.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Msg
}

// TransportError wraps a network failure or 5xx on a write. Writes are not
// known to be idempotent, so the caller decides whether to retry.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

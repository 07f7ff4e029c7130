// Package domain defines the error taxonomy shared by the reservation core:
// NotFound, Unauthorized, Conflict. Anything else is an internal failure.
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ConflictError reports a violated scheduling or state-machine rule:
// overlap, daily-uniqueness, closed hours, or an illegal transition.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// Conflictf builds a ConflictError from a format string.
func Conflictf(format string, args ...interface{}) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// IsConflict checks if err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when name-based resolution of a trip or point finds
// no match. Callers map it to an operation-specific user-facing reply.
var ErrNotFound = errors.New("not found")

// ErrNoSession is returned when dialog input arrives for a chat with no
// active session. Nothing is mutated.
var ErrNoSession = errors.New("no active dialog session")

// ValidationError carries the step-specific message shown to the user when
// input for a dialog step is rejected. The session is left unchanged.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a step validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

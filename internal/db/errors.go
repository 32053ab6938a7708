package db

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a project (or other record) does not
	// exist. Callers that treat absence as a normal outcome should check
	// with errors.Is.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when registering a project whose slug is
	// already taken. Registration is deliberately not idempotent so an
	// existing project's API key can never be silently replaced.
	ErrConflict = errors.New("already exists")
)

// ValidationError reports malformed caller input: bad dates, non-numeric
// field values, empty payloads. It maps to a 400 at the HTTP boundary.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Package apperr defines the sentinel error categories used across iamvet.
//
// Error taxonomy
//
//	UserError  – caused by missing or invalid user input (wrong flag, bad
//	             catalog entry, unreadable data file, …).
//	             The CLI prints only the message; usage help is NOT repeated.
//	             Exit code: 1.
//
//	ErrCancelled – the user deliberately aborted an interactive flow (overwrite
//	               prompt, criteria selector, …).
//	               Exit code: 0 (not a failure).
//
//	ErrOutOfRange – a strict run finished but some values missed their target
//	                range or some criteria could not be evaluated.
//	                Exit code: 2.
//
// Everything else is a plain Go error (I/O, unit conversion, …) and is
// propagated with fmt.Errorf("context: %w", err) wrapping.
package apperr

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user explicitly aborts an interactive
// operation.  The CLI should exit 0 rather than 1 when it sees this error.
var ErrCancelled = errors.New("operation cancelled")

// ErrOutOfRange is returned by strict vetting runs that did not fully pass.
var ErrOutOfRange = errors.New("values outside their target range")

// UserError represents an error caused by invalid or missing user input.
// Cobra command handlers return this instead of a bare fmt.Errorf so that
// the root command can suppress repeated usage output and format the message
// in a user-friendly way.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

// Unwrap exposes the cause, if any.
func (e *UserError) Unwrap() error { return e.Err }

// User creates a UserError with the given message.
func User(msg string) error { return &UserError{Message: msg} }

// Userf creates a formatted UserError. A %w verb keeps the wrapped error
// reachable through errors.Is.
func Userf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	return &UserError{Message: err.Error(), Err: errors.Unwrap(err)}
}

// IsUser reports whether err is (or wraps) a *UserError.
func IsUser(err error) bool {
	var u *UserError
	return errors.As(err, &u)
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, ErrCancelled):
		return 0
	case errors.Is(err, ErrOutOfRange):
		return 2
	}
	return 1
}

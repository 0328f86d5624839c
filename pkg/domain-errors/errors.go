// Package errors provides code-classified domain errors. Services create and
// translate errors here; transports map codes onto status codes without ever
// inspecting error strings.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for callers and transports.
type Code string

const (
	// CodeInvalidInput marks malformed identifiers or field values.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks requests that are well-formed but unfulfillable
	// (unknown setup, unrecognised interval).
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a missing entity surfaced to the caller.
	CodeNotFound Code = "not_found"
	// CodeConflict marks uniqueness or concurrent-update conflicts.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation marks broken aggregate invariants.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInvalidState marks state-machine precondition failures. No mutation
	// has occurred when an error with this code is returned.
	CodeInvalidState Code = "invalid_state"
	// CodeTimeout marks cancelled or deadline-exceeded operations.
	CodeTimeout Code = "timeout"
	// CodeUnavailable marks a dependency that is temporarily unreachable.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks unexpected failures; details stay in logs.
	CodeInternal Code = "internal"
)

// Error is a domain error carrying a classification code. It wraps an
// optional cause for errors.Is/As traversal.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries no classification.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

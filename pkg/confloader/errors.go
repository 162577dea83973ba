package confloader

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Error is a configuration loading error with a stable code.
//
// Sentinel values below are compared by code, so errors.Is(err,
// ErrMissingField) matches any missing-field error regardless of details.
type Error struct {
	Code    string // Error code (e.g., "CFG-LOAD-4001")
	Message string // Human-readable message
	Details string // Offending field path or file path
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// newError creates a new Error with the given code and message.
func newError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details string) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// Wrap returns a copy of the error wrapping the given cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

var (
	// ErrMissingField indicates a required field received no value from any source.
	ErrMissingField = newError("CFG-LOAD-4001", "missing required field")

	// ErrTypeCoercion indicates a value could not be converted to the field's type.
	ErrTypeCoercion = newError("CFG-LOAD-4002", "cannot coerce value")

	// ErrMalformedSource indicates a source file exists but could not be parsed.
	ErrMalformedSource = newError("CFG-LOAD-4003", "malformed source file")

	// ErrValidation indicates a validate tag constraint failed.
	ErrValidation = newError("CFG-LOAD-4004", "validation failed")

	// ErrInvalidTarget indicates Load was given something other than a pointer to struct.
	ErrInvalidTarget = newError("CFG-LOAD-5001", "invalid load target")

	// ErrSourceRead indicates a source failed for a reason other than being absent.
	ErrSourceRead = newError("CFG-LOAD-5002", "source read failed")
)

// IsCode reports whether err (or any error it aggregates) is an *Error with
// the given code. An empty code matches any *Error.
func IsCode(err error, code string) bool {
	for _, e := range multierr.Errors(err) {
		var ce *Error
		if errors.As(e, &ce) && (code == "" || ce.Code == code) {
			return true
		}
	}
	return false
}

// Code extracts the code of the first *Error in err.
func Code(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// MissingFields lists the dotted paths reported by missing-field errors in err.
func MissingFields(err error) []string {
	var paths []string
	for _, e := range multierr.Errors(err) {
		var ce *Error
		if errors.As(e, &ce) && ce.Code == ErrMissingField.Code {
			paths = append(paths, ce.Details)
		}
	}
	return paths
}

// UnavailableError marks a source whose backing data could not be read
// (missing file, permission denied). The loader treats it as an empty
// source instead of failing.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err so the loader skips the source rather than failing.
// Custom sources can return it when their backend has nothing to offer.
func Unavailable(source string, err error) error {
	return &UnavailableError{Source: source, Err: err}
}

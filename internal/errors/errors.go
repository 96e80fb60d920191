// Package errors provides coded domain errors for the tillpoint migration core.
//
// Usage:
//
//	// Strict conversions return typed errors
//	if !known {
//	    return "", errors.Mappingf("no mapping for product name %q", name)
//	}
//
//	// Callers check with errors.Is
//	if errors.Is(err, errors.ErrMapping) {
//	    // fall back to the original name
//	}
//
//	// Or switch on the code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeValidation:
//	    case errors.CodeStorage:
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	// CodeValidation marks malformed input (empty or blank names).
	CodeValidation Code = "VALIDATION"
	// CodeMapping marks a well-formed name with no known mapping.
	CodeMapping Code = "MAPPING"
	// CodeStorage marks key-value store read, parse or write failures.
	CodeStorage Code = "STORAGE"
	// CodeNotFound marks a missing backup or record.
	CodeNotFound Code = "NOT_FOUND"
	// CodeCritical marks failures outside the guarded per-collection regions.
	CodeCritical Code = "CRITICAL"
	// CodeInternal marks programming errors.
	CodeInternal Code = "INTERNAL"
)

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors for use with errors.Is().
var (
	ErrValidation = &Error{Code: CodeValidation, Message: "validation error"}
	ErrMapping    = &Error{Code: CodeMapping, Message: "no mapping"}
	ErrStorage    = &Error{Code: CodeStorage, Message: "storage error"}
	ErrNotFound   = &Error{Code: CodeNotFound, Message: "not found"}
	ErrCritical   = &Error{Code: CodeCritical, Message: "critical error"}
	ErrInternal   = &Error{Code: CodeInternal, Message: "internal error"}
)

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Mappingf creates a mapping error with formatted message.
func Mappingf(format string, args ...any) *Error {
	return &Error{Code: CodeMapping, Message: fmt.Sprintf(format, args...)}
}

// Storagef wraps a store failure with formatted message.
func Storagef(err error, format string, args ...any) *Error {
	return &Error{Code: CodeStorage, Message: fmt.Sprintf(format, args...), cause: err}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Critical wraps an unexpected failure.
func Critical(err error, msg string) *Error {
	return &Error{Code: CodeCritical, Message: msg, cause: err}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Package errors provides structured error types for the lookconf engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and library surfaces
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes partition failures the way the apply pipeline consumes them:
// document errors never leave the parser as panics, connection-level
// failures abort a whole apply, and per-call rejections stay scoped to
// the request that produced them.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeParseFailed, "read %s failed", path)
//	if errors.Is(err, errors.ErrCodeConnectionFailed) {
//	    // Abort the apply sequence
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRemoteRejected, origErr, "POST %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Document and input errors
	ErrCodeParseFailed     Code = "PARSE_FAILED"     // malformed XML, unreadable input
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT" // parsed but unusable (no nodes, no look library)
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeNotFound        Code = "NOT_FOUND"

	// Remote authoring-service errors
	ErrCodeConnectionFailed Code = "CONNECTION_FAILED" // refused, unreachable, version probe failed
	ErrCodeRemoteRejected   Code = "REMOTE_REJECTED"   // non-2xx status or unparseable response body
	ErrCodeEchoMismatch     Code = "ECHO_MISMATCH"     // 2xx but echoed values contradict the request
	ErrCodeTimeout          Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

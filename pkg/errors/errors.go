// Package errors provides structured error types for qrfetch.
//
// Every acquisition tier reports failures as an [*Error] carrying a
// machine-readable [Code]. The codes mirror the failure taxonomy of the
// pipeline:
//   - LOCAL_ENCODE_UNAVAILABLE: the local QR encoder could not produce an image
//   - NETWORK_ERROR / NOT_FOUND: transport failures and non-success statuses
//   - DECODE_FAILURE: bytes were received but are not a decodable image
//   - PARSE_FAILURE: the scraped page did not contain an image reference
//   - CACHE_READ_FAILURE: a cache entry exists but is unreadable or corrupt
//
// Tiers never let these errors cross the orchestrator boundary; they are
// logged and used to advance to the next tier.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "width must be positive, got %d", w)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "GET %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the acquisition pipeline.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Tier failures
	ErrCodeLocalEncodeUnavailable Code = "LOCAL_ENCODE_UNAVAILABLE"
	ErrCodeNetwork                Code = "NETWORK_ERROR"
	ErrCodeNotFound               Code = "NOT_FOUND"
	ErrCodeDecode                 Code = "DECODE_FAILURE"
	ErrCodeParse                  Code = "PARSE_FAILURE"
	ErrCodeCacheRead              Code = "CACHE_READ_FAILURE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// It unwraps the error chain looking for an *Error with a matching code,
// so a DECODE_FAILURE wrapped inside a NETWORK_ERROR is still found.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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

// Retryable reports whether a failed fetch may succeed on a second attempt.
// Only transport-level network errors qualify; NOT_FOUND, DECODE_FAILURE and
// PARSE_FAILURE are deterministic.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == ErrCodeNetwork && !Is(err, ErrCodeNotFound)
}

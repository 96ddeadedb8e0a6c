// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrCatalogLoad indicates the catalog source is unreadable or its root
	// structure is malformed. The system continues with an empty catalog.
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrModelCall indicates the language-model call failed
	// (network, quota, or malformed response).
	ErrModelCall = errors.New("model call failed")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// MalformedRecordError reports a single catalog entry missing its expected
// shape. The entry is normalized field-by-field with defaults; the rest of
// the catalog is unaffected.
type MalformedRecordError struct {
	Index int
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed catalog record %d (field %s): %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed catalog record %d: %v", e.Index, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// NewMalformedRecordError creates a new malformed record error.
func NewMalformedRecordError(index int, field string, err error) *MalformedRecordError {
	return &MalformedRecordError{Index: index, Field: field, Err: err}
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when no authenticated principal is present.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrForbidden is returned when the principal lacks the required role or
	// ownership for an operation.
	ErrForbidden = errors.New("operation forbidden")
)

// NewValidationError wraps a sentinel error with a field name and message,
// preserving errors.Is matching on the sentinel.
func NewValidationError(field, message string, sentinel error) error {
	return fmt.Errorf("%s %s: %w", field, message, sentinel)
}

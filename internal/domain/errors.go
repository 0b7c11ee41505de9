package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is returned when a domain entity or command fails validation.
// It is usually wrapped in a *ValidationError naming the offending field.
var ErrValidation = errors.New("validation failed")

// ValidationError describes a single invalid field. It unwraps to
// ErrValidation so callers can classify it with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

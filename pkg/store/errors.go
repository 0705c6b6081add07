package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Update and Delete when no record matched the
// id under the caller's owner scope. Cross-owner access surfaces as this
// same error so existence is never leaked.
var ErrNotFound = errors.New("record not found")

// ValidationError rejects a write whose payload is missing or malformed in a
// way the caller can fix. Handlers surface it as a 400 with the message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

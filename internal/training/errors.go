package training

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// NewValidationError builds a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

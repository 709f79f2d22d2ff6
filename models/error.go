package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// Sentinel errors for the lookup and authorization failure modes. Handlers
// wrap these with context; transport code matches with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError reports malformed input. Fields lists every violated
// field, not just the first one encountered.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// NewValidationError builds a ValidationError with a default message.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: fields}
}

// ConflictError reports a uniqueness violation and names the conflicting field.
type ConflictError struct {
	Resource string
	Field    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Resource, e.Field)
}

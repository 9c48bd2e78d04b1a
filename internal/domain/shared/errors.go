// Package shared provides common domain types used across all audit domain packages.
package shared

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors.
var (
	ErrEmptyID       = errors.New("id cannot be empty")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrConflict      = errors.New("entity state conflict")

	ErrUnauthorized     = errors.New("unauthorized access")
	ErrPermissionDenied = errors.New("permission denied")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")

	ErrNotFound = errors.New("entity not found")

	// ErrUnavailable marks a dependency that is not configured or not reachable.
	ErrUnavailable = errors.New("dependency unavailable")
)

// ValidationError represents a validation error with field details.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match any validation error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ValidationErrors collects several field errors from one validation pass.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrInvalidInput) match a validation error list.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, NewValidationError(field, message))
}

// Err returns nil when no errors were collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Package service holds the authentication, authorization and document
// lifecycle logic.  Handlers translate the sentinel errors below into HTTP
// responses; every other package reports failures through them.
package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed or missing input and closed-set violations.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when registering an email that is taken.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrInvalidCredentials is returned by login for an unknown email and for
	// a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized covers missing, invalid and expired tokens, and tokens
	// whose user no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller's role is not allowed.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the referenced user or document is absent.
	ErrNotFound = errors.New("not found")
	// ErrInternal wraps unexpected collaborator failures.  Its detail is for
	// logs only.
	ErrInternal = errors.New("internal error")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError carries the ordered list of field failures.  It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// invalid builds a single-field ValidationError.
func invalid(field, msg string, value any) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg, Value: value}}}
}

// internal wraps a collaborator failure under ErrInternal.
func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

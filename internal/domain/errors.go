package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrPolicyViolation = errors.New("policy violation")
	ErrGeneration      = errors.New("generation failed")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// PolicyViolationError carries the full set of payment-policy checks that a
// proposed plan failed. It is data, not a decision: callers choose whether a
// violation forces escalation.
type PolicyViolationError struct {
	Violations []ComplianceCheck
}

func (e *PolicyViolationError) Error() string {
	names := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		names[i] = v.Name
	}
	return fmt.Sprintf("policy: %s", strings.Join(names, ", "))
}

func (e *PolicyViolationError) Unwrap() error { return ErrPolicyViolation }

// GenerationError wraps a failure from the external proposal generator.
// The state machine recovers from it with a fixed fallback proposal; it is
// never surfaced to the caller of ProcessTurn.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generator: %v", e.Err) }

func (e *GenerationError) Unwrap() error { return ErrGeneration }

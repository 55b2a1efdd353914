// Package shared contains common domain types and errors used across the
// course and plan packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Configuration errors
	ErrConfiguration = errors.New("configuration error")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "course", "plan", "counselor"
	Op      string // Operation that failed, e.g., "Resolve", "Replace"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Domain == t.Domain && e.Op == t.Op && e.Message == t.Message
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Course catalog errors
var (
	ErrCourseNotFound      = NewDomainError("course", "Find", ErrNotFound, "course not found")
	ErrDuplicateCourse     = NewDomainError("course", "Load", ErrAlreadyExists, "duplicate course code")
	ErrInvalidCourse       = NewDomainError("course", "Validate", ErrInvalidEntity, "invalid course record")
	ErrPrerequisiteCycle   = NewDomainError("course", "Resolve", ErrConfiguration, "prerequisite cycle in catalog")
	ErrEmptyCatalog        = NewDomainError("course", "Load", ErrEmptyValue, "catalog is empty")
	ErrInvalidTrack        = NewDomainError("course", "Validate", ErrInvalidInput, "invalid track")
	ErrGradeOutOfRange     = NewDomainError("course", "Validate", ErrValueOutOfRange, "grade must be between 9 and 12")
	ErrUnknownCatalogShape = NewDomainError("course", "Load", ErrInvalidFormat, "unsupported catalog format")
)

// Plan errors
var (
	ErrPlanNotFound       = NewDomainError("plan", "Load", ErrNotFound, "plan not found")
	ErrInvalidProfile     = NewDomainError("plan", "Validate", ErrValidation, "invalid student profile")
	ErrInvalidReplacement = NewDomainError("plan", "Replace", ErrInvalidInput, "replacement not allowed")
	ErrInvalidRecord      = NewDomainError("plan", "Decode", ErrInvalidFormat, "invalid plan record")
)

// Counselor errors
var (
	ErrCounselorNotFound = NewDomainError("counselor", "Find", ErrNotFound, "counselor not found for last name")
)

// Interest service errors
var (
	ErrInterestsUnavailable = NewDomainError("interests", "Fetch", ErrServiceUnavailable, "interest endpoints unavailable")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsConfiguration checks if the error points at bad configuration or catalog data.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

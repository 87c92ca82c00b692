package shared

import (
	"errors"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so a NotFound built
// with a specific message still satisfies errors.Is(err, ErrNotFound).
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyExists   = "ALREADY_EXISTS"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeConflict        = "CONFLICT"
	CodeInvalidState    = "INVALID_STATE"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeValidation      = "VALIDATION_ERROR"
	CodeFeatureDisabled = "FEATURE_DISABLED"
)

// Common domain errors
var (
	ErrNotFound        = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists   = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput    = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConflict        = NewDomainError(CodeConflict, "Operation conflicts with the current state")
	ErrInvalidState    = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrUnauthorized    = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrValidation      = NewDomainError(CodeValidation, "Validation failed")
	ErrFeatureDisabled = NewDomainError(CodeFeatureDisabled, "Operation is disabled by configuration")
)

// NotFound returns a NOT_FOUND error with a specific message
func NotFound(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// Conflict returns a CONFLICT error with a specific message
func Conflict(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// InvalidInput returns an INVALID_INPUT error with a specific message
func InvalidInput(message string) *DomainError {
	return NewDomainError(CodeInvalidInput, message)
}

// ValidationError collects every violated constraint of a request instead
// of stopping at the first one.
type ValidationError struct {
	Messages []string
}

// Error joins the collected messages
func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Is reports a match for ErrValidation
func (e *ValidationError) Is(target error) bool {
	var t *DomainError
	return errors.As(target, &t) && t.Code == CodeValidation
}

// Add records a violation
func (e *ValidationError) Add(message string) {
	e.Messages = append(e.Messages, message)
}

// Check records message when ok is false
func (e *ValidationError) Check(ok bool, message string) {
	if !ok {
		e.Add(message)
	}
}

// Err returns e when any violation was recorded, nil otherwise
func (e *ValidationError) Err() error {
	if e == nil || len(e.Messages) == 0 {
		return nil
	}
	return e
}

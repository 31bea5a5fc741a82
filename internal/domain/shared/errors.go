package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by all bounded contexts. The HTTP layer maps them to status codes.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeExists       = "ALREADY_EXISTS"
	CodeInvalidState = "INVALID_STATE"
	CodePersistence  = "PERSISTENCE_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by code so sentinel comparisons work on wrapped instances.
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

// WithCause returns a copy of e that wraps cause
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, cause: cause}
}

// NewValidationError reports input the caller must fix before retrying.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a missing entity of the given kind.
func NewNotFoundError(kind string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", kind, id))
}

// NewConflictError reports a uniqueness or concurrency clash. Safe to retry after reload.
func NewConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// NewInvalidStateError reports an operation that the entity's current state forbids.
func NewInvalidStateError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// NewPersistenceError wraps a storage failure. The message stays generic; the cause is kept for logs.
func NewPersistenceError(op string, cause error) *DomainError {
	return &DomainError{
		Code:    CodePersistence,
		Message: fmt.Sprintf("%s failed", op),
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists = NewDomainError(CodeExists, "Resource already exists")
	ErrInvalidInput  = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConflict      = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrInvalidState  = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrPersistence   = NewDomainError(CodePersistence, "Persistence failure")
)

// IsNotFound reports whether err is a not-found domain error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a conflict domain error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}

// IsPersistence reports whether err is a persistence failure
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// CodeOf extracts the domain error code, or "" for foreign errors
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

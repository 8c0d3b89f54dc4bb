package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition indicates an illegal ingestion state change.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrBlobNotOrphaned indicates a garbage-collection delete was
	// refused because the blob gained a reference.
	ErrBlobNotOrphaned = errors.New("blob is still referenced")

	// ErrAlreadyResolved indicates a dead-letter job was already
	// resolved by an operator.
	ErrAlreadyResolved = errors.New("job already resolved")

	// ErrLLMUnavailable indicates the generative model service is not
	// configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ErrorKind classifies an AppError for the API layer.
type ErrorKind string

// Application error kinds.
const (
	KindUnauthorized       ErrorKind = "UNAUTHORIZED"
	KindTenantConfig       ErrorKind = "TENANT_CONFIG_ERROR"
	KindExternalService    ErrorKind = "EXTERNAL_SERVICE_ERROR"
	KindLLMInvalidResponse ErrorKind = "LLM_INVALID_RESPONSE"
	KindLLMInvalidFormat   ErrorKind = "LLM_INVALID_FORMAT"
	KindInternal           ErrorKind = "INTERNAL_ERROR"
)

// AppError is a classified pipeline failure carrying an HTTP-style status
// for the excluded API layer.
type AppError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Status is the HTTP-style status code.
	Status int

	// Message is the human-readable description.
	Message string

	// Err is the wrapped cause, if any.
	Err error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a classified error.
func NewAppError(kind ErrorKind, status int, message string, err error) *AppError {
	return &AppError{Kind: kind, Status: status, Message: message, Err: err}
}

// ValidationError rejects malformed input before any side effect.
type ValidationError struct {
	// Field names the offending input field.
	Field string

	// Message describes the violation.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation failure for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

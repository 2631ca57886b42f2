package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain error taxonomy. Services wrap these inside
// an *AppError; HTTP handlers map them to status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInconsistent = errors.New("inconsistent state")
)

type AppError struct {
	Err     error  // sentinel cause
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a domain-rule violation: media not available for loan,
// category already assigned, loan already returned. Handlers map it to 409.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized reports a failed authentication attempt. The message stays
// deliberately vague so a caller cannot probe which part of the credentials
// was wrong. Handlers map it to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Inconsistent reports malformed persisted state that should never occur,
// e.g. a stored loan without a borrowed-at timestamp. Maps to 500.
func Inconsistent(message string) *AppError {
	return &AppError{
		Err:     ErrInconsistent,
		Message: message,
	}
}

package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCode covers "code not found", "code already used" and
	// "lost the redemption race" alike. Collapsing the three keeps the
	// error surface from leaking which codes exist (logs may still
	// distinguish them).
	ErrInvalidCode = errors.New("invalid code")

	// ErrCodeExpired means the code exists and is unused but its own
	// shelf-life has passed.
	ErrCodeExpired = errors.New("code expired")
)

type AppError struct {
	Err     error  // sentinel identifying the error class
	Message string // human-readable error message
	Field   string // optional: field causing the error
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

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
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

// Unauthorized returns an AppError for failed authentication.
// The message should stay generic ("invalid credentials") so login
// attempts cannot probe which emails are registered.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// InvalidCode returns the single user-facing error for every unredeemable
// code. Callers must not vary the message by cause.
func InvalidCode() *AppError {
	return &AppError{
		Err:     ErrInvalidCode,
		Message: "invalid or already used code",
	}
}

// CodeExpired returns the error for an unused code past its shelf-life.
func CodeExpired() *AppError {
	return &AppError{
		Err:     ErrCodeExpired,
		Message: "code has expired",
	}
}

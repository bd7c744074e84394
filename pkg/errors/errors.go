package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Meeting generation and conflict triage errors.
	ErrInvalidRange            = New("INVALID_RANGE", http.StatusBadRequest, "start date is after end date")
	ErrInvalidOfferingDetail   = New("INVALID_OFFERING_DETAIL", http.StatusBadRequest, "offering detail is missing required fields")
	ErrNoCandidateRoom         = New("NO_CANDIDATE_ROOM", http.StatusUnprocessableEntity, "no candidate room available")
	ErrNoCandidateInstructor   = New("NO_CANDIDATE_INSTRUCTOR", http.StatusUnprocessableEntity, "no candidate instructor available")
	ErrPersistenceFailure      = New("PERSISTENCE_FAILURE", http.StatusInternalServerError, "storage operation failed")
	ErrInvalidStrategy         = New("INVALID_STRATEGY", http.StatusBadRequest, "unknown resolution strategy")
	ErrInvalidStatusTransition = New("INVALID_STATUS_TRANSITION", http.StatusConflict, "conflict status transition not allowed")
	ErrBatchDisabled           = New("BATCH_GENERATION_DISABLED", http.StatusForbidden, "batch generation is disabled")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Base error kinds
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
	ErrInternal     = errors.New("internal error")
)

// Error carries a user-facing message alongside the kind of failure and the
// operation that produced it.
type Error struct {
	Kind    error
	Op      string // e.g. "create_reminder", "capture_order"
	Message string // safe to return to the client
	Err     error  // underlying cause, never shown to the client
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if e.Kind == target {
		return true
	}
	return errors.Is(e.Err, target)
}

// New builds an Error of the given kind.
func New(kind error, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind error, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func InvalidInput(op, message string) *Error {
	return New(ErrInvalidInput, op, message)
}

func NotFound(op, message string) *Error {
	return New(ErrNotFound, op, message)
}

func Upstream(op, message string, err error) *Error {
	return Wrap(ErrUpstream, op, message, err)
}

// Status maps an error to the HTTP status code handlers respond with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe message for err. Anything that is not an
// *Error collapses to fallback so internal details never reach the response.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// Package apperr defines the error kinds returned across service boundaries and
// how they map to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	Unauthorized      Kind = "unauthorized"
	Forbidden         Kind = "forbidden"
	NotFound          Kind = "not_found"
	InvalidInput      Kind = "invalid_input"
	InsufficientFunds Kind = "insufficient_funds"
	OutOfStock        Kind = "out_of_stock"
	InvalidState      Kind = "invalid_state"
	Internal          Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap keeps cause reachable through errors.Is/As while presenting message to callers.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports Internal for anything that is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

func Status(kind Kind) int {
	switch kind {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvalidInput, InsufficientFunds, OutOfStock, InvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

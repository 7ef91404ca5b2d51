// Package apperr defines the error kinds services report to the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks an existing entity that lacks the data needed to proceed.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidInput marks a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func NotFound(msg string) error {
	return &kindError{kind: ErrNotFound, msg: msg}
}

func InvalidState(msg string) error {
	return &kindError{kind: ErrInvalidState, msg: msg}
}

func InvalidInput(msg string) error {
	return &kindError{kind: ErrInvalidInput, msg: msg}
}

// HTTPStatus maps an error to a response status. Anything that is not one of
// the known kinds is a store failure and maps to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsExpected reports whether err is a user-facing condition rather than an
// infrastructure fault.
func IsExpected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) || errors.Is(err, ErrInvalidInput)
}

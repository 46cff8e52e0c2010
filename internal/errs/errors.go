// Package errs defines the error taxonomy shared by the store, services,
// relay and HTTP layers. Kind sentinels classify an error; specific errors
// wrap exactly one kind so errors.Is matches both.
package errs

import (
	"errors"
	"net/http"
)

// Kinds.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("unauthorized")
	ErrStore      = errors.New("store error")
	ErrExhausted  = errors.New("retry budget exhausted")
)

// Specific errors.
var (
	ErrInvalidRoomCode    = New(ErrValidation, "invalid room code")
	ErrRoomNotFound       = New(ErrNotFound, "room not found")
	ErrUserNotFound       = New(ErrNotFound, "user not found")
	ErrDuplicateCode      = New(ErrConflict, "duplicate room code")
	ErrCodeCollision      = New(ErrConflict, "room code collision, please retry")
	ErrDuplicateUsername  = New(ErrConflict, "username already taken")
	ErrDuplicateEmail     = New(ErrConflict, "email already registered")
	ErrInvalidCredentials = New(ErrAuth, "invalid credentials")
	ErrInactiveUser       = New(ErrAuth, "account is disabled")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// New returns an error of the given kind whose message is msg alone.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Error tags an underlying failure with a kind and the operation that produced it.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Store wraps a backend failure as a StoreError. Errors that already carry a
// kind (not found, duplicate) pass through unchanged.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &Error{Kind: ErrStore, Op: op, Err: err}
}

// Validation builds a ValidationError with a client-facing message.
func Validation(msg string) error {
	return New(ErrValidation, msg)
}

// Classified reports whether err already carries one of the kinds.
func Classified(err error) bool {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrAuth, ErrStore, ErrExhausted} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// HTTPStatus maps an error to the status code surfaced to HTTP callers.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show a client. Store and unknown
// errors are collapsed so driver details never leak.
func PublicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusServiceUnavailable:
		return "could not allocate a room code, please retry"
	default:
		return err.Error()
	}
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so HTTP handlers can pick a status code
// without inspecting message strings.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidState
	KindRegistrationRequired
)

// Error is the error type the engines return. Message is safe to show
// to clients; Err carries the underlying cause for server-side logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Invalid(message string) *Error              { return New(KindInvalid, message) }
func Forbidden(message string) *Error            { return New(KindForbidden, message) }
func NotFound(message string) *Error             { return New(KindNotFound, message) }
func Conflict(message string) *Error             { return New(KindConflict, message) }
func InvalidState(message string) *Error         { return New(KindInvalidState, message) }
func RegistrationRequired(message string) *Error { return New(KindRegistrationRequired, message) }

// KindOf returns the Kind of err, or KindInternal for anything that is
// not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindInvalid, KindInvalidState, KindRegistrationRequired:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

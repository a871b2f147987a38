// Package apperr defines the error kinds the domain services return and how
// each kind is presented to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindNotAuthorized
	KindInvalidState
	KindValidation
	KindConflict
	KindUnauthenticated
	KindRateLimited
)

var kindInfo = map[Kind]struct {
	code   string
	status int
}{
	KindInternal:        {"internal_error", http.StatusInternalServerError},
	KindNotFound:        {"not_found", http.StatusNotFound},
	KindNotAuthorized:   {"not_authorized", http.StatusForbidden},
	KindInvalidState:    {"invalid_state", http.StatusConflict},
	KindValidation:      {"validation_error", http.StatusBadRequest},
	KindConflict:        {"conflict", http.StatusConflict},
	KindUnauthenticated: {"unauthenticated", http.StatusUnauthorized},
	KindRateLimited:     {"rate_limited", http.StatusTooManyRequests},
}

// Code is the stable machine-readable name of k.
func (k Kind) Code() string { return kindInfo[k].code }

// Status is the HTTP status used for k.
func (k Kind) Status() int { return kindInfo[k].status }

func (k Kind) String() string { return k.Code() }

// Error carries a Kind, a client-safe message and an optional cause.
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

// WithMessage returns a copy of e with msg, leaving the sentinel untouched.
func (e *Error) WithMessage(msg string) *Error {
	cpy := *e
	cpy.Message = msg
	return &cpy
}

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && t.Message == ""
	}
	return false
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrNotAuthorized   = &Error{Kind: KindNotAuthorized}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
)

func NotFound(msg string) error      { return &Error{Kind: KindNotFound, Message: msg} }
func NotAuthorized(msg string) error { return &Error{Kind: KindNotAuthorized, Message: msg} }
func InvalidState(msg string) error  { return &Error{Kind: KindInvalidState, Message: msg} }
func Validation(msg string) error    { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) error      { return &Error{Kind: KindConflict, Message: msg} }

// Wrap attaches a kind and client-safe message to err.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-safe message for err. Internal errors never
// expose their text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal && e.Message != "" {
		return e.Message
	}
	return http.StatusText(KindOf(err).Status())
}

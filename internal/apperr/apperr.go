// Package apperr carries the business-rule error taxonomy across layers.
// Services return these for rejected operations; handlers map them to HTTP
// status codes without leaking storage internals to clients.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a rejected operation
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalid is malformed input (bad enum value, bad uuid)
	KindInvalid
	// KindNotFound means a referenced entity is absent
	KindNotFound
	// KindConflict is a uniqueness violation or a delete blocked by a reference
	KindConflict
	// KindInvalidState means the lifecycle transition is not permitted from the current state
	KindInvalidState
	// KindUnauthorized means the identity check failed
	KindUnauthorized
	// KindForbidden means the role check failed
	KindForbidden
)

// Error is the canonical business failure type
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Invalid(msg string) *Error      { return &Error{Kind: KindInvalid, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
func InvalidState(msg string) *Error { return &Error{Kind: KindInvalidState, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }

// KindOf extracts the kind from anywhere in the error chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps a service error to the response status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalid, KindInvalidState:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

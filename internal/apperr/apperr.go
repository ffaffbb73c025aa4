// Package apperr defines the error taxonomy shared by the room,
// membership, and message engines. Every rejected mutation carries one
// of five codes so the HTTP layer can map outcomes without inspecting
// message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies why a mutation was rejected.
type Code string

const (
	// CodeNotFound: the room, message, or thread does not exist.
	CodeNotFound Code = "not_found"
	// CodeForbidden: an authorization or role rule was violated.
	CodeForbidden Code = "forbidden"
	// CodeInvariant: a structural rule was violated (member-count
	// bounds, topic on a DM, duplicate channel name).
	CodeInvariant Code = "invariant"
	// CodeAlreadyExists: an idempotent duplicate was detected; the
	// caller should treat the existing resource as the result.
	CodeAlreadyExists Code = "already_exists"
	// CodeDependency: the storage or fan-out gateway was unreachable
	// or rejected the call; nothing was applied.
	CodeDependency Code = "dependency"
)

// Error is a coded domain error. Ref optionally names the resource the
// error refers to; for CodeAlreadyExists it carries the id of the
// room that already satisfies the request.
type Error struct {
	Code    Code
	Message string
	Ref     string
}

func (e *Error) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Ref)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func Invariant(format string, args ...any) *Error {
	return &Error{Code: CodeInvariant, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists signals an idempotent duplicate. ref is the id of the
// existing resource.
func AlreadyExists(ref, format string, args ...any) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...), Ref: ref}
}

func Dependency(format string, args ...any) *Error {
	return &Error{Code: CodeDependency, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code from err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// RefOf extracts the resource reference from err, if any.
func RefOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Ref
	}
	return ""
}

// HTTPStatus maps a code to the status the API layer responds with.
// CodeAlreadyExists intentionally maps to 200: duplicate DM creation is
// an idempotent "room already exists" success, not a client error.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvariant:
		return http.StatusBadRequest
	case CodeAlreadyExists:
		return http.StatusOK
	case CodeDependency:
		return http.StatusFailedDependency
	}
	return http.StatusInternalServerError
}

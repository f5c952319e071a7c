// Package apperr defines the error taxonomy shared by every domain
// service: validation, conflict, not-found, unauthorized and internal.
// Handlers never inspect error strings; they return service errors as-is
// and the echo error handler maps the kind to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthorized
)

// Error carries a classification alongside the message. Msg is safe to
// surface to clients; Err (when set) is the internal cause and is only
// logged.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Msg: resource + " not found"}
}

func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf classifies an arbitrary error. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

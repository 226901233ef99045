// internal/apperrors/errors.go
package apperrors

import "fmt"

// Kind classifies a failure so transport layers can map it to a status code
// without string matching.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindInvalidState Kind = "INVALID_STATE"
	KindInvalidInput Kind = "INVALID_INPUT"
	KindConflict     Kind = "CONFLICT"
	KindInternal     Kind = "INTERNAL"
)

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

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	if appErr, ok := err.(*Error); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := err.(*Error)
	return ok && appErr.Kind == kind
}

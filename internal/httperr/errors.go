// Package httperr provides errors that carry an HTTP status code.
//
// # Error Conventions
//
// Handlers signal an HTTP-visible failure by returning (or panicking with)
// an *Error. Any other error type can take part by implementing
// StatusCoder; the check walks wrapped chains, so
//
//	fmt.Errorf("loading user: %w", httperr.NotFound("user not found"))
//
// is still answered with a 404.
package httperr

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusCoder is implemented by errors that know their HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// StackTracer is implemented by values that captured a stack trace.
type StackTracer interface {
	StackTrace() string
}

// Error is an error with an explicit HTTP status and a client-safe message.
type Error struct {
	Status  int
	Message string
	Cause   error

	stack string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// StatusCode returns the HTTP status.
func (e *Error) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// StackTrace returns the stack captured when the error was created.
func (e *Error) StackTrace() string {
	if e == nil {
		return ""
	}
	return e.stack
}

// Is reports whether target is an *Error with the same status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == e.Status
}

// New creates an Error. An empty message defaults to the status text.
func New(status int, message string) *Error {
	return newError(status, message, nil)
}

// Wrap creates an Error around cause.
func Wrap(status int, message string, cause error) *Error {
	return newError(status, message, cause)
}

// Errorf creates an Error with a formatted message.
func Errorf(status int, format string, args ...any) *Error {
	return newError(status, fmt.Sprintf(format, args...), nil)
}

func newError(status int, message string, cause error) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{
		Status:  status,
		Message: message,
		Cause:   cause,
		stack:   callers(3),
	}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, message, nil)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, message, nil)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *Error {
	return newError(http.StatusForbidden, message, nil)
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return newError(http.StatusNotFound, message, nil)
}

// Internal creates a 500 error.
func Internal(message string) *Error {
	return newError(http.StatusInternalServerError, message, nil)
}

// ValidStatus reports whether status can be sent as a final response.
// Informational 1xx codes cannot.
func ValidStatus(status int) bool {
	return status >= 200 && status <= 599
}

// StatusOf returns the status carried by err or anything it wraps.
func StatusOf(err error) (int, bool) {
	var sc StatusCoder
	if !errors.As(err, &sc) {
		return 0, false
	}
	status := sc.StatusCode()
	if !ValidStatus(status) {
		return 0, false
	}
	return status, true
}

// StackOf returns the first stack trace found in err's chain.
func StackOf(err error) string {
	var st StackTracer
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return ""
}

// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an application error carrying an HTTP-style status code.
// Domain packages declare sentinel values of this type so handlers can
// map any failure to a response without inspecting message strings.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// BadRequest creates a 400 error
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized creates a 401 error
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// NotFound creates a 404 error
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Internal wraps an infrastructure failure as a 500 error
func Internal(message string, err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: message, Err: err}
}

// StatusCode extracts the HTTP status for any error. Non-application
// errors map to 500 so infrastructure failures are never surfaced raw.
func StatusCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to return to API clients.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}

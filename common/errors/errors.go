package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error represents an application error
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

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation is returned when a product violates a schema constraint.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

// BadRequest wraps a malformed request error.
func BadRequest(message string, err error) *Error {
	return New(http.StatusBadRequest, message, err)
}

// NotFound covers both missing and soft-deleted records.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

// Conflict is returned when a record changed between read and write.
func Conflict(message string, err error) *Error {
	return New(http.StatusConflict, message, err)
}

// Internal hides err behind a generic message.
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// As extracts an *Error from err. Anything else is reported as a 500.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(http.StatusText(http.StatusInternalServerError), err)
}

// Is reports whether err carries the given HTTP code.
func Is(err error, code int) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

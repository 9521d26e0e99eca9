package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error pins an HTTP status and code to a failure that happened at the
// transport boundary (oversized bodies, malformed payloads) rather than in a
// service.
type Error struct {
	Status int
	Code   string
	Err    error
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// PayloadTooLarge reports a request body over limit bytes.
func PayloadTooLarge(limit int64) *Error {
	return New(http.StatusRequestEntityTooLarge, "payload_too_large",
		fmt.Errorf("request body exceeds %d bytes", limit))
}

// BadRequest wraps a decode failure.
func BadRequest(err error) *Error {
	return New(http.StatusBadRequest, "invalid_request", err)
}

// As returns the first *Error in err's chain that carries a status.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil && ae.Status != 0 {
		return ae, true
	}
	return nil, false
}

package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the tagged domain error returned by services. Handlers map it to
// the response envelope by Status/Code; Reason narrows a 403.
type Error struct {
	Status int
	Code   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(err error) *Error {
	return New(http.StatusBadRequest, "validation_error", err)
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, "unauthorized", err)
}

func Forbidden(reason string, err error) *Error {
	return &Error{Status: http.StatusForbidden, Code: "forbidden", Reason: reason, Err: err}
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "not_found", err)
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, "conflict", err)
}

func External(err error) *Error {
	return New(http.StatusBadGateway, "external_service_error", err)
}

func Unexpected(err error) *Error {
	return New(http.StatusInternalServerError, "unexpected_error", err)
}

// From returns err as *Error, wrapping unknown errors as unexpected.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Unexpected(err)
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NotFoundError reports a missing resource. Its type string is "<resource>_not_found".
type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", capitalize(e.Resource))
}

func (e NotFoundError) Unwrap() error { return e.Err }

func (e NotFoundError) Type() string {
	if e.Resource == "" {
		return "not_found"
	}
	return strings.ReplaceAll(strings.ToLower(e.Resource), " ", "_") + "_not_found"
}

type ValidationError struct {
	Kind  string // machine readable, e.g. "invalid_date_format"
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

func (e ValidationError) Type() string {
	if e.Kind == "" {
		return "validation_error"
	}
	return e.Kind
}

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

func (e ConflictError) Type() string { return "conflict" }

type UnauthorizedError struct {
	Msg string
	Err error
}

func (e UnauthorizedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "not authenticated"
}

func (e UnauthorizedError) Unwrap() error { return e.Err }

func (e UnauthorizedError) Type() string { return "unauthorized" }

type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "insufficient permissions"
}

func (e ForbiddenError) Type() string { return "forbidden" }

// InternalError wraps an upstream failure. The upstream message is kept for diagnostics.
type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func (e InternalError) Type() string { return "internal_error" }

func NotFound(resource string) error {
	return NotFoundError{Resource: resource}
}

func Validation(kind, msg string) error {
	return ValidationError{Kind: kind, Msg: msg}
}

func Internal(msg string, err error) error {
	return InternalError{Msg: msg, Err: err}
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target UnauthorizedError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

// TypeOf returns the machine readable type of err, or "internal_error".
func TypeOf(err error) string {
	var typed interface{ Type() string }
	if errors.As(err, &typed) {
		return typed.Type()
	}
	return "internal_error"
}

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsUnauthorized(err):
		return http.StatusUnauthorized
	case IsForbidden(err):
		return http.StatusForbidden
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package domain

import (
	"errors"
	"fmt"
)

// Error codes shared by the application layer and the user-facing adapters.
const (
	CodeExtractionNotFound = "extraction_not_found"
	CodeValidation         = "validation"
	CodePersistence        = "persistence"
	CodeNotFound           = "not_found"
	CodeDispatch           = "dispatch"
	CodeAlreadyHandled     = "already_handled"
)

// Error is a domain error carrying a stable code. Msg is a developer-facing
// detail; user-facing text is resolved from Code by the adapters.
type Error struct {
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Msg == "" && t.Err == nil
}

// Sentinels.
var (
	ErrExtractionNotFound = &Error{Code: CodeExtractionNotFound}
	ErrValidation         = &Error{Code: CodeValidation}
	ErrPersistence        = &Error{Code: CodePersistence}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrDispatch           = &Error{Code: CodeDispatch}
	ErrAlreadyHandled     = &Error{Code: CodeAlreadyHandled}
)

// Validation returns a validation error with the given detail.
func Validation(format string, args ...any) error {
	return &Error{Code: CodeValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error with the given detail.
func NotFound(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure.
func Persistence(op string, err error) error {
	return &Error{Code: CodePersistence, Msg: op, Err: err}
}

// Dispatch wraps a notification delivery failure.
func Dispatch(op string, err error) error {
	return &Error{Code: CodeDispatch, Msg: op, Err: err}
}

// Code returns the domain code of err, or "" when err is not a domain error.
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

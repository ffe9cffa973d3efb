package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation")  // 400
	ErrAuth       = errors.New("unauthorized") // 401
	ErrForbidden  = errors.New("forbidden")    // 403
	ErrNotFound   = errors.New("not found")    // 404
	ErrConflict   = errors.New("conflict")     // 409
	ErrDependency = errors.New("dependency")   // 500
)

// Error carries a client-safe message next to its kind and internal cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newErr(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...any) error { return newErr(ErrValidation, format, args...) }
func unauthorized(format string, args ...any) error {
	return newErr(ErrAuth, format, args...)
}
func notFound(format string, args ...any) error { return newErr(ErrNotFound, format, args...) }
func conflict(format string, args ...any) error { return newErr(ErrConflict, format, args...) }

// dependency wraps a store or downstream failure. Record-not-found from gorm
// is promoted to ErrNotFound so callers can rely on the kind alone.
func dependency(msg string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: ErrNotFound, Msg: msg + ": not found", Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &Error{Kind: ErrConflict, Msg: msg + ": already exists", Err: err}
	}
	return &Error{Kind: ErrDependency, Msg: msg, Err: err}
}

// Message returns the client-safe text of err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Msg
	}
	return err.Error()
}

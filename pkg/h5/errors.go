package h5

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a façade failure.
type ErrorCode int

const (
	// ErrArgument covers empty names, property lists of the wrong class and
	// out-of-range index types or orders. Nothing reaches the backend.
	ErrArgument ErrorCode = iota

	// ErrHandle covers handles that are absent, of the wrong class, or that
	// could not be registered.
	ErrHandle

	// ErrBackend covers failures reported by the connector.
	ErrBackend

	// ErrCleanup covers a best-effort close on an error path that itself
	// failed. It is only ever attached to another error.
	ErrCleanup
)

func (c ErrorCode) String() string {
	switch c {
	case ErrArgument:
		return "argument error"
	case ErrHandle:
		return "handle error"
	case ErrBackend:
		return "backend error"
	case ErrCleanup:
		return "cleanup error"
	default:
		return fmt.Sprintf("error(%d)", int(c))
	}
}

// Error is returned by every fallible Library operation.
//
// The first failure of a call is the primary error. If the call then has to
// release a backend object and that release fails too, the release failure
// is recorded in Cleanup; it never replaces the primary error.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Op is the façade operation that failed (e.g. "create group")
	Op string

	// Err is the underlying cause
	Err error

	// Cleanup is the failure of a best-effort release, if any
	Cleanup *Error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op + ": " + e.Code.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Cleanup != nil {
		msg += " (cleanup failed: " + e.Cleanup.Error() + ")"
	}
	return msg
}

// Unwrap returns the cause of the primary error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is (or wraps) an Error with the given primary
// code.
func IsCode(err error, code ErrorCode) bool {
	var h5Err *Error
	if errors.As(err, &h5Err) {
		return h5Err.Code == code
	}
	return false
}

func argumentError(op string, err error) *Error {
	return &Error{Code: ErrArgument, Op: op, Err: err}
}

func handleError(op string, err error) *Error {
	return &Error{Code: ErrHandle, Op: op, Err: err}
}

func backendError(op string, err error) *Error {
	return &Error{Code: ErrBackend, Op: op, Err: err}
}

var (
	errEmptyName = errors.New("name parameter cannot be NULL or the empty string")
	errShutdown  = errors.New("library is shut down")
	errNotLoc    = errors.New("not a file or group handle")
)

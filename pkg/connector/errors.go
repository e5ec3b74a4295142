package connector

import (
	"errors"
	"fmt"
)

// Error represents a failure reported by a backend.
//
// These are hierarchy errors (group not found, name taken, ...) as opposed
// to argument and handle errors, which the front end detects before any
// dispatch. The front end reports every Error as a backend failure.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Op is the connector operation that failed (e.g. "group create")
	Op string

	// Path is the name related to the error (if applicable)
	Path string

	// Err is the underlying cause (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a backend error.
type ErrorCode int

const (
	// ErrNotFound indicates the addressed object or a path component does
	// not exist
	ErrNotFound ErrorCode = iota

	// ErrAlreadyExists indicates the name is already linked
	ErrAlreadyExists

	// ErrNotGroup indicates a path component resolved to a non-group object
	ErrNotGroup

	// ErrInvalidObject indicates the Object was not produced by this
	// connector or does not fit the operation
	ErrInvalidObject

	// ErrClosed indicates the object or its container has been closed
	ErrClosed

	// ErrIO indicates the underlying storage failed
	ErrIO

	// ErrNotSupported indicates the operation is not supported by this
	// connector
	ErrNotSupported

	// ErrOutOfRange indicates a by-index position past the last link
	ErrOutOfRange
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not found"
	case ErrAlreadyExists:
		return "already exists"
	case ErrNotGroup:
		return "not a group"
	case ErrInvalidObject:
		return "invalid object"
	case ErrClosed:
		return "closed"
	case ErrIO:
		return "i/o error"
	case ErrNotSupported:
		return "not supported"
	case ErrOutOfRange:
		return "index out of range"
	default:
		return fmt.Sprintf("error(%d)", int(c))
	}
}

// NewError builds an Error.
func NewError(code ErrorCode, op, path string) *Error {
	return &Error{Code: code, Op: op, Path: path}
}

// WrapError builds an Error carrying a cause.
func WrapError(code ErrorCode, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// IsCode reports whether err is (or wraps) a connector Error with code.
func IsCode(err error, code ErrorCode) bool {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}

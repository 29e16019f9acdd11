// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package store

import (
	"errors"
	"fmt"
)

// Code classifies store failures. Callers see one taxonomy regardless of
// backend; a bare code matches errors produced from it via errors.Is.
//
// There is no not-found code. Absent reads return a nil result, never an
// error.
type Code int

const (
	// CodeBackend is connectivity loss, timeout, or any other failure of
	// the underlying medium.
	CodeBackend Code = iota + 1

	// CodeCorruption is a stored digest that does not decode to the
	// expected 32 bytes. It is fatal to the operation and never
	// defaulted, since a zero-padded digest would silently corrupt tree
	// proofs.
	CodeCorruption

	// CodeInvalidKey is a key-shape violation, detected before the
	// operation reaches the backend.
	CodeInvalidKey
)

func (c Code) String() string {
	switch c {
	case CodeBackend:
		return "backend"
	case CodeCorruption:
		return "corruption"
	case CodeInvalidKey:
		return "invalid key"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error implements error so codes can be used as errors.Is targets.
func (c Code) Error() string { return c.String() }

// With returns an Error with the given message.
func (c Code) With(v ...any) *Error {
	return &Error{Code: c, Message: fmt.Sprint(v...)}
}

// WithFormat formats a message, unwrapping a cause if the format wraps one
// with %w.
func (c Code) WithFormat(format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Code: c, Message: err.Error(), Cause: errors.Unwrap(err)}
}

// Wrap returns an Error wrapping err, or nil if err is nil.
func (c Code) Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: c, Cause: err}
}

// An Error is a store failure: a code, a human-readable message, and
// optionally the backend error that caused it.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return e.Code.String() + ": " + e.Cause.Error()
	default:
		return e.Code.String()
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches a bare Code target against the error's code.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
)

// ErrorCode is the closed set of error kinds the tooling distinguishes
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeConfig is for operator configuration problems caught before any external call
	ErrorCodeConfig

	// ErrorCodeUnavailable is for transient dependency errors where retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeUnauthorized is for rejected credentials or permissions
	ErrorCodeUnauthorized

	// ErrorCodeInvalidArgument is for inputs the remote side refused
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for local input validation failures
	ErrorCodeValidation

	// ErrorCodeNotFound is for missing accounts, documents or rows
	ErrorCodeNotFound

	// ErrorCodeAlreadyExists is for create calls that lost to an existing record
	ErrorCodeAlreadyExists

	// ErrorCodeDB is for document store and database write failures
	ErrorCodeDB
)

var codeNames = map[ErrorCode]string{
	ErrorCodeUnknown:         "unknown",
	ErrorCodeConfig:          "config",
	ErrorCodeUnavailable:     "unavailable",
	ErrorCodeUnauthorized:    "unauthorized",
	ErrorCodeInvalidArgument: "invalid_argument",
	ErrorCodeValidation:      "validation",
	ErrorCodeNotFound:        "not_found",
	ErrorCodeAlreadyExists:   "already_exists",
	ErrorCodeDB:              "db",
}

// String returns the stable snake_case name of the code
func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// ExitCode maps an error to a process exit status
// configuration problems exit 2, everything else 1
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsCode(err, ErrorCodeConfig):
		return 2
	default:
		return 1
	}
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error type with wrapping and metadata
// msg is operator facing; code is machine facing
// field is optional (for validation); op is optional operation tag
// orig is the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Message returns the message without the wrapped cause
func (e *Error) Message() string { return e.msg }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
// The outermost *Error wins so adapters can reclassify wrapped causes
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return err != nil && CodeOf(err) == code }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithField attaches a field to an *Error. If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error. If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// Configf returns a configuration error
func Configf(format string, a ...any) error { return Newf(ErrorCodeConfig, format, a...) }

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// AlreadyExistsf returns an already exists error
func AlreadyExistsf(format string, a ...any) error { return Newf(ErrorCodeAlreadyExists, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// DBf returns a general database error
func DBf(format string, a ...any) error { return Newf(ErrorCodeDB, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }

// Retryable reports whether the error is a transient condition worth retrying
// Our own Unavailable code counts; otherwise backend-specific logic in pg.go decides
func Retryable(err error) bool {
	if IsCode(err, ErrorCodeUnavailable) {
		return true
	}
	return IsRetryable(err)
}

package errors

// Firebase and Firestore helpers that classify SDK errors into the closed ErrorCode set
// so callers never match on message text

import (
	"context"
	stderrs "errors"

	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// seams over the SDK predicates; the SDK error type cannot be built outside its module
var (
	isUserNotFound = auth.IsUserNotFound
	isUserExists   = func(err error) bool {
		return auth.IsEmailAlreadyExists(err) || auth.IsUIDAlreadyExists(err)
	}
	isAuthUnavailable = func(err error) bool {
		return errorutils.IsUnavailable(err) || errorutils.IsDeadlineExceeded(err) ||
			errorutils.IsResourceExhausted(err)
	}
	isAuthDenied = func(err error) bool {
		return errorutils.IsUnauthenticated(err) || errorutils.IsPermissionDenied(err) ||
			auth.IsInsufficientPermission(err)
	}
	isAuthInvalid = func(err error) bool {
		return errorutils.IsInvalidArgument(err) || auth.IsInvalidEmail(err)
	}
)

// AuthErrorCode classifies a Firebase Authentication error
func AuthErrorCode(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrorCodeUnknown
	case isUserNotFound(err):
		return ErrorCodeNotFound
	case isUserExists(err):
		return ErrorCodeAlreadyExists
	case stderrs.Is(err, context.DeadlineExceeded), isAuthUnavailable(err):
		return ErrorCodeUnavailable
	case isAuthDenied(err):
		return ErrorCodeUnauthorized
	case isAuthInvalid(err):
		return ErrorCodeInvalidArgument
	default:
		// already classified errors keep their code
		return CodeOf(err)
	}
}

// FromFirebase wraps an auth SDK error with its classified code
// If err is nil, returns nil
func FromFirebase(err error, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, AuthErrorCode(err), msg)
}

// StoreErrorCode classifies a Firestore (gRPC) error by status code
func StoreErrorCode(err error) ErrorCode {
	if err == nil {
		return ErrorCodeUnknown
	}
	if stderrs.Is(err, context.DeadlineExceeded) {
		return ErrorCodeUnavailable
	}
	switch status.Code(err) {
	case codes.NotFound:
		return ErrorCodeNotFound
	case codes.AlreadyExists:
		return ErrorCodeAlreadyExists
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return ErrorCodeUnavailable
	case codes.PermissionDenied, codes.Unauthenticated:
		return ErrorCodeUnauthorized
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return ErrorCodeInvalidArgument
	default:
		return ErrorCodeDB
	}
}

// FromFirestore wraps a Firestore error with its classified code
// If err is nil, returns nil
func FromFirestore(err error, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, StoreErrorCode(err), msg)
}

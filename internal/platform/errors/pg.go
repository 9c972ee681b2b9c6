package errors

// Postgres-specific helpers for mapping pgx errors to project ErrorCode and retry semantics

import (
	"context"
	"database/sql"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the profile store cares about
const (
	pgErrUniqueViolation           = "23505"
	pgErrNotNullViolation          = "23502"
	pgErrCheckViolation            = "23514"
	pgErrStringDataRightTruncation = "22001"
	pgErrInvalidTextRepresentation = "22P02"
	pgErrInvalidJSONText           = "22032"
	pgErrUndefinedTable            = "42P01"
	pgErrInsufficientPrivilege     = "42501"
	pgErrInvalidPassword           = "28P01"

	pgErrSerializationFailure   = "40001"
	pgErrDeadlockDetected       = "40P01"
	pgErrLockNotAvailable       = "55P03"
	pgErrReadOnlySQLTransaction = "25006"
	pgErrCannotConnectNow       = "57P03"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports whether the error is a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgErrUniqueViolation) }

// IsNoRows reports whether a single row read found nothing, for pgx and database/sql
func IsNoRows(err error) bool {
	return stderrs.Is(err, pgx.ErrNoRows) || stderrs.Is(err, sql.ErrNoRows)
}

// IsUndefinedTable reports whether the profile table is missing
func IsUndefinedTable(err error) bool { return IsSQLState(err, pgErrUndefinedTable) }

// DBErrorCode maps a Postgres error to an ErrorCode with an ok flag
// !ok means err wasn't a PgError; caller may fall back to generic handling
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}

	switch pgErr.Code {
	case pgErrUniqueViolation:
		return ErrorCodeAlreadyExists, true
	case pgErrNotNullViolation, pgErrCheckViolation:
		return ErrorCodeValidation, true
	case pgErrStringDataRightTruncation, pgErrInvalidTextRepresentation, pgErrInvalidJSONText:
		return ErrorCodeInvalidArgument, true
	case pgErrInsufficientPrivilege, pgErrInvalidPassword:
		return ErrorCodeUnauthorized, true
	case pgErrReadOnlySQLTransaction, pgErrCannotConnectNow:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with a mapped ErrorCode and message
// If err is nil, returns nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// FromPostgresf is the formatted variant of FromPostgres
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether a database error represents a transient condition
// It handles structured *pgconn.PgError codes and the generic pgx commit text
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Local cancellations/timeouts are the caller's decision
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	if pgErr, ok := ExtractPgError(err); ok {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlockDetected, pgErrLockNotAvailable, pgErrCannotConnectNow:
			return true
		default:
			return false
		}
	}

	s := strings.ToLower(Root(err).Error())
	switch {
	case strings.Contains(s, "commit unexpectedly resulted in rollback"),
		strings.Contains(s, "deadlock detected"),
		strings.Contains(s, "could not serialize access"),
		strings.Contains(s, "database is locked"):
		return true
	default:
		return false
	}
}

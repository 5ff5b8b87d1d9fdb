package errors

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ClassifyPgError maps a pgx error onto the database error codes. Already
// classified AppErrors pass through unchanged.
func ClassifyPgError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound(resource).WithCause(err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return Wrap(ErrCodeConnectionError, "database connection failed", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 23: integrity constraint violation
		if strings.HasPrefix(pgErr.Code, "23") {
			return Wrap(ErrCodeConstraintViolation, "constraint violation", err).
				WithDetails(pgErr.ConstraintName)
		}
		return Wrap(ErrCodeQueryError, "query failed", err).WithContext("sqlstate", pgErr.Code)
	}

	return NewDatabaseError(err)
}

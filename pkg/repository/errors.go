package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes recognized by MapError.
const (
	codeUniqueViolation   = "23505"
	codeInvalidTextFormat = "22P02"
)

// MapError converts driver errors into domain errors:
//
//   - sql.ErrNoRows and malformed key literals (22P02) become notFound
//   - unique violations (23505) become duplicate
//
// Anything else is returned as is.
func MapError(err error, notFound, duplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return duplicate
	case codeInvalidTextFormat:
		return notFound
	default:
		return err
	}
}

package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskman/internal/store"
)

// SQLSTATE codes this package translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

const usersEmailConstraint = "users_email_key"

// MapError translates driver errors into store sentinels. The driver error
// stays in the message; unrecognized errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	var sentinel error
	detail := pgErr.ConstraintName
	switch pgErr.Code {
	case codeUniqueViolation:
		sentinel = store.ErrDuplicate
		if pgErr.ConstraintName == usersEmailConstraint {
			sentinel = store.ErrEmailExists
		}
		return fmt.Errorf("%w: %v", sentinel, err)
	case codeForeignKeyViolation, codeCheckViolation:
		sentinel = store.ErrInvalidEntity
	case codeNotNullViolation:
		sentinel, detail = store.ErrInvalidEntity, pgErr.ColumnName
	default:
		return err
	}
	return fmt.Errorf("%w: %s violated (%s): %v", sentinel, detail, pgErr.Code, err)
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
func IsUniqueViolation(err error) bool { return sqlState(err) == codeUniqueViolation }

// IsForeignKeyViolation reports whether err carries SQLSTATE 23503.
func IsForeignKeyViolation(err error) bool { return sqlState(err) == codeForeignKeyViolation }

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// CheckRowsAffected turns a zero-row UPDATE or DELETE into notFound, or
// store.ErrNotFound when notFound is nil.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("postgres: nil sql.Result")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if notFound == nil {
		return store.ErrNotFound
	}
	return notFound
}

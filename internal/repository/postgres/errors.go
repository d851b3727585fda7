package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"campusdrop/internal/apperr"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// IsDuplicate - signals that the error is a duplicate key violation.
func IsDuplicate(err error) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == codeUniqueViolation
}

// IsMissingReference signals a foreign key violation.
func IsMissingReference(err error) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == codeForeignKeyViolation
}

// IsNotFound - signals that the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// wrap maps driver errors onto apperr sentinels.
func wrap(op string, err error) error {
	switch {
	case IsDuplicate(err):
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	case IsMissingReference(err):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

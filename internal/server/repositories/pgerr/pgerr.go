// Package pgerr classifies PostgreSQL driver errors into common sentinels.
package pgerr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Wrap maps err to common.ErrorNotFound / common.ErrorAlreadyExists where it
// can, and wraps anything else as a db error.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", common.ErrorNotFound, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("db error: %w", err)
}

// RequireAffected returns common.ErrorNotFound when res reports zero rows.
func RequireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

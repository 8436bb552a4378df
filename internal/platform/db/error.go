package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medvault/medvault/internal/platform/apperr"
)

// MapError translates pgx errors into the shared error taxonomy. Unique
// violations become Conflict, missing rows become NotFound, and dangling
// foreign keys become NotFound as well since the referenced record is gone.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, apperr.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, apperr.ErrNotFound)
		}
	}
	return err
}

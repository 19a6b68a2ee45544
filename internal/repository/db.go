package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Saman-dev12/civic/internal/lifecycle"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so every repository runs
// the same queries inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	ErrUserNotFound       = fmt.Errorf("user %w", lifecycle.ErrNotFound)
	ErrSessionNotFound    = fmt.Errorf("session %w", lifecycle.ErrNotFound)
	ErrComplaintNotFound  = fmt.Errorf("complaint %w", lifecycle.ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("assignment %w", lifecycle.ErrNotFound)
	ErrDuplicate          = fmt.Errorf("duplicate record: %w", lifecycle.ErrConflict)
)

const uniqueViolation = "23505"

// mapWriteError turns unique-index violations into ErrDuplicate.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrDuplicate)
	}
	return err
}

func mapNoRows(err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}

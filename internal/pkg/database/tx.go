package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/forumhq/forum-api/internal/pkg/logger"
)

// ErrConcurrentConflict reports that a concurrent transaction won a race
// for the same rows. The operation may be retried once with a fresh read.
var ErrConcurrentConflict = errors.New("concurrent conflict")

// Postgres SQLSTATE codes the store cares about
const (
	CodeUniqueViolation      = "23505"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

// WithTx runs fn in a transaction, committing on nil and rolling back otherwise
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", MapError(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return MapError(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", MapError(err))
	}
	return nil
}

// MapError turns lost-race Postgres errors into ErrConcurrentConflict.
// Any other error is returned unchanged.
func MapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case CodeSerializationFailure, CodeDeadlockDetected:
		return fmt.Errorf("%w: %w", ErrConcurrentConflict, err)
	default:
		return err
	}
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to one constraint name
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != CodeUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// RetryOnConflict runs fn and, if it lost a race, runs it exactly once more.
// The second result is returned as is.
func RetryOnConflict(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if !errors.Is(err, ErrConcurrentConflict) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	logger.FromContext(ctx).Debug().Str("op", op).Err(err).Msg("retrying after concurrent conflict")
	return fn()
}

package db

import (
	"context"
	"database/sql"
	"errors"

	"uziwear-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrTxConflict is returned when the store could not serialize a transaction
// even after retries. Transient: the caller may retry the whole operation.
var ErrTxConflict = errors.New("transaction conflict")

const maxTxAttempts = 3

// Tx is the querying surface available inside a transaction closure. Both
// *sql.Tx and *sql.DB satisfy it, so repository methods written against Tx can
// run standalone or under RunInTx.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunInTx runs fn inside a serializable transaction, rolling back on error.
// Serialization failures and deadlocks (SQLSTATE class 40) abort nothing
// visibly: the whole closure is retried, so fn must not carry side effects
// beyond the transaction itself.
func RunInTx(ctx context.Context, db *sql.DB, fn func(tx Tx) error) error {
	log := logger.FromCtx(ctx)

	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return err
		}

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
			if isSerializationFailure(err) {
				log.Warn("transaction serialization failure, retrying",
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
				lastErr = err
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isSerializationFailure(err) {
				log.Warn("transaction commit conflict, retrying",
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
				lastErr = err
				continue
			}
			return err
		}

		return nil
	}

	log.Error("transaction aborted after retries", zap.Error(lastErr))
	return ErrTxConflict
}

// isSerializationFailure reports whether err is a PostgreSQL transaction
// rollback error (SQLSTATE class 40: serialization_failure, deadlock_detected).
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "40"
	}
	return false
}

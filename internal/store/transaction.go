package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskman/internal/platform/logger"
)

// TxFn is the body of a transaction. Returning an error rolls it back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn in a transaction on db and commits when fn returns
// nil. On error the transaction is rolled back and fn's error is returned,
// joined with the rollback error if that failed too. A panic in fn rolls back
// and re-panics.
func RunInTransaction(ctx context.Context, db TxBeginner, fn TxFn) (err error) {
	log := logger.FromContextOrDefault(ctx, slog.Default())

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		p := recover()
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("failed to roll back transaction", slog.String("error", rbErr.Error()))
			if err != nil {
				err = errors.Join(err, fmt.Errorf("error rolling back transaction: %w", rbErr))
			}
		}
		if p != nil {
			log.Error("rolled back transaction after panic", slog.Any("panic", p))
			panic(p) // ALLOW-PANIC
		}
	}()

	if err = fn(ctx, tx); err != nil {
		log.Debug("rolling back transaction", slog.String("error", err.Error()))
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

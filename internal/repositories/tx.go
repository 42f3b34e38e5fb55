package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// contextKey is an unexported type for keys in context
type contextKey struct{}

var txKey = contextKey{}

// withTx stores a transaction in the context
func withTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// txFromContext retrieves the transaction from the context. Returns nil if not present.
func txFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

// TxRunner scopes a function to a database transaction. Repository calls
// made with the context it passes to fn run inside that transaction.
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner creates a TxRunner over the given handle.
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunInTx begins a transaction, runs fn, and commits. Any error from fn
// rolls the transaction back; panics roll back and re-raise.
func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			panic(rec)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

package services

import (
	"context"
	"database/sql"

	"duet/internal/plugins/postgres"
)

// TxManager wraps a unit of work in a transaction carried through context.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

func (tm *TxManager) WithTx(
	ctx context.Context,
	fn func(ctx context.Context) error,
) error {
	if tm.db == nil {
		// Test wiring without a database: run the unit of work as-is.
		return fn(ctx)
	}
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	ctxWithTx := postgres.WithTx(ctx, tx)
	if err := fn(ctxWithTx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

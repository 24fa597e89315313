package services

import (
	"context"
	"database/sql"
	"log/slog"
)

type txKeyType struct{}

var txKey = txKeyType{}

type TxManager struct {
	db  *sql.DB
	log *slog.Logger
}

func NewTxManager(log *slog.Logger, db *sql.DB) *TxManager {
	return &TxManager{db: db, log: log}
}

// WithTx runs fn inside a transaction carried on the context; repos
// pick it up through their executor lookup. Rollback on error, commit
// otherwise.
func (tm *TxManager) WithTx(
	ctx context.Context,
	fn func(ctx context.Context) error,
) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	ctxWithTx := context.WithValue(ctx, txKey, tx)
	if err := fn(ctxWithTx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// TxFromContext exposes the carried transaction to the persistence
// layer without the layers importing each other.
func TxFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

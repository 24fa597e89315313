package postgres

import (
	"context"
	"database/sql"

	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
)

type execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// GetExecutor returns the transaction carried on the context when one
// is present, so repository calls inside TxManager.WithTx join it.
func GetExecutor(ctx context.Context, db *sql.DB) execer {
	if tx, ok := services.TxFromContext(ctx); ok {
		return tx
	}
	return db
}

package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql that the task and user stores execute
// against. Both *sql.DB and *sql.Tx satisfy it, so a store built on a pool
// can be rebound to a transaction (see UserStore.WithTx) without changing
// any query code.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

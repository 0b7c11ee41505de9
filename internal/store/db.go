package store

import (
	"context"
	"database/sql"
)

// DBTX is the query surface the Postgres stores need. Both *sql.DB and
// *sql.Tx satisfy it, so a store built on a transaction takes part in it;
// the integration tests rely on that to roll every test back.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

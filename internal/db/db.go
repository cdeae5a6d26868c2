// Package db defines the narrow database contract the pipeline depends on,
// plus a Postgres (pgx) implementation. The interfaces exist so that every
// pipeline stage can be unit tested hermetically against a scripted fake
// without a live server.
package db

import "context"

// Row is the single-row scan surface returned by QueryRow. *pgx.Row
// satisfies it directly.
type Row interface {
	Scan(dest ...any) error
}

// Tx is one open database transaction. The pipeline runs entirely inside a
// single Tx opened by the orchestrator; no stage commits or rolls back on
// its own.
type Tx interface {
	// Exec runs a statement and reports how many rows it affected, when the
	// backend exposes that signal.
	Exec(ctx context.Context, sql string, args ...any) (RowCount, error)

	// QueryRow runs a query expected to yield at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// CopyInto bulk-appends rows into table using the backend's fastest
	// mechanism (Postgres COPY). rows are aligned to columns order.
	CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is an open database connection able to mint transactions.
type DB interface {
	BeginTx(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

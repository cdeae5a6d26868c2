// Postgres adapter wrapping pgx.Conn/pgx.Tx behind the DB and Tx interfaces.
//
// Design goals, matching the rest of the package:
//   - Allow mocking via the pgConnLike seam (hermetic unit tests).
//   - Keep behavior minimal and predictable; no implicit retries.
//   - Surface errors directly.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgConnLike is the minimal subset of *pgx.Conn used by the adapter. The
// seam lets tests inject a fake connection.
type pgConnLike interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// pgDB is the concrete Postgres adapter implementing DB.
type pgDB struct{ conn pgConnLike }

// NewPgDB connects to Postgres with pgx.Connect and wraps the connection.
// One connection per process run; the caller closes it via Close.
func NewPgDB(ctx context.Context, dsn string) (DB, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &pgDB{conn: c}, nil
}

// BeginTx opens a transaction. pgx never auto-commits statements issued on a
// Tx, which is the contract the pipeline requires.
func (p *pgDB) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

// Close closes the underlying connection.
func (p *pgDB) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

// pgTx wraps pgx.Tx to implement Tx.
type pgTx struct{ tx pgx.Tx }

// Exec executes a statement within the transaction. pgx always carries a
// rows-affected signal on its command tag, so the count comes back known.
func (t *pgTx) Exec(ctx context.Context, sql string, args ...any) (RowCount, error) {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return Unknown(), err
	}
	return Count(tag.RowsAffected()), nil
}

// QueryRow runs a single-row query within the transaction.
func (t *pgTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

// CopyInto performs a bulk insert using Postgres COPY FROM. This is the fast
// path for appending parsed CSV rows to the staging table.
func (t *pgTx) CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	n, err := t.tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if ok := asPgError(err, &pgErr); ok && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s)", table, pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// Commit commits the active transaction.
func (t *pgTx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback aborts the active transaction.
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRows is returned by Row.Scan when a query matched nothing. Re-exported
// so pipeline code does not import pgx directly.
var ErrNoRows = pgx.ErrNoRows

func asPgError(err error, target **pgconn.PgError) bool {
	return errors.As(err, target)
}

// IsDatabaseError reports whether err originated in the Postgres layer:
// a server-reported error, a connection-establishment failure, or one of the
// pgx transaction-state errors. Used only to pick the alert subject; every
// fatal category exits the same way.
func IsDatabaseError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, pgx.ErrTxClosed) ||
		errors.Is(err, pgx.ErrTxCommitRollback)
}

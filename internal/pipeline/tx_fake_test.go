package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/eleonen/telco-dwh-project/internal/db"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

type copyCall struct {
	table   string
	columns []string
	rows    [][]any
}

// fakeRow satisfies db.Row with a scripted Scan.
type fakeRow struct {
	scan func(dest []any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest) }

// scanInts writes the given values into *int64 scan targets.
func scanInts(vals ...int64) func(dest []any) error {
	return func(dest []any) error {
		for i, v := range vals {
			*(dest[i].(*int64)) = v
		}
		return nil
	}
}

// fakeTx is a scripted db.Tx recording every statement and COPY. Behavior is
// customized per test through the execFn and queryFn hooks.
type fakeTx struct {
	execs    []string
	execArgs [][]any
	copies   []copyCall

	execFn  func(sql string, args []any) (db.RowCount, error)
	queryFn func(sql string, args []any) db.Row
	copyErr error

	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (db.RowCount, error) {
	f.execs = append(f.execs, sql)
	f.execArgs = append(f.execArgs, args)
	if f.execFn != nil {
		return f.execFn(sql, args)
	}
	return db.Count(0), nil
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) db.Row {
	if f.queryFn != nil {
		return f.queryFn(sql, args)
	}
	return fakeRow{scan: func([]any) error { return db.ErrNoRows }}
}

func (f *fakeTx) CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copies = append(f.copies, copyCall{table: table, columns: columns, rows: rows})
	return int64(len(rows)), nil
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

// statementsContaining returns every recorded statement containing substr.
func (f *fakeTx) statementsContaining(substr string) []string {
	var out []string
	for _, s := range f.execs {
		if strings.Contains(s, substr) {
			out = append(out, s)
		}
	}
	return out
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eleonen/telco-dwh-project/internal/db"
)

// TestRun_StageOrdering walks a full happy-path run against a scripted
// transaction and checks that the stages touch the database in order:
// schema setup, staging load, merge, views, retention.
func TestRun_StageOrdering(t *testing.T) {
	t.Parallel()

	path := writeCSV(t,
		"1001,2024-03-01 10:00:00+00,voice,7,1,0,60.5,12.50000000,2024-03",
		"1002,2024-03-01 11:00:00+00,sms,3,0,0,0,0.05000000,2024-03",
	)

	tx := &fakeTx{execFn: func(sql string, args []any) (db.RowCount, error) {
		if strings.Contains(sql, "ON CONFLICT") {
			return db.Count(2), nil
		}
		if strings.Contains(sql, "DELETE FROM") {
			return db.Count(5), nil
		}
		return db.Count(0), nil
	}}

	p := New(testLogger(), Options{ExpectedCols: 9, RetentionEnabled: true, RetentionMonths: 6})
	report, err := p.Run(context.Background(), tx, path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Load.Staged != 2 {
		t.Fatalf("staged = %d", report.Load.Staged)
	}
	if n, ok := report.Load.Inserted.Value(); !ok || n != 2 {
		t.Fatalf("inserted = (%d,%v)", n, ok)
	}
	if !report.QualityGood || len(report.QualityIssues) != 0 {
		t.Fatalf("quality = (%v, %v)", report.QualityGood, report.QualityIssues)
	}
	if n, ok := report.Deleted.Value(); !ok || n != 5 {
		t.Fatalf("deleted = (%d,%v)", n, ok)
	}

	order := []string{
		"CREATE TABLE IF NOT EXISTS telco_billings_usage",
		"CREATE OR REPLACE FUNCTION generate_event_uuid",
		"CREATE TEMP TABLE",
		"ON CONFLICT (event_uuid) DO NOTHING",
		"CREATE OR REPLACE VIEW analytics_usage_distribution",
		"CREATE OR REPLACE VIEW analytics_monthly_trends",
		"DELETE FROM telco_billings_usage",
	}
	pos := -1
	for _, want := range order {
		found := -1
		for i, s := range tx.execs {
			if i > pos && strings.Contains(s, want) {
				found = i
				break
			}
		}
		if found == -1 {
			t.Fatalf("statement %q missing or out of order after index %d\nstatements: %v", want, pos, tx.execs)
		}
		pos = found
	}
}

// TestRun_QualityFailureDoesNotAbort: bad data quality is reported but the
// run still refreshes views and applies retention.
func TestRun_QualityFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	path := writeCSV(t,
		"1001,2024-03-01 10:00:00+00,voice,7,1,0,60.5,12.50000000,2024-03",
	)

	tx := &fakeTx{
		execFn: func(sql string, args []any) (db.RowCount, error) {
			return db.Count(1), nil
		},
		queryFn: qualityRows(0, 0, 0, 10, 3),
	}

	p := New(testLogger(), Options{ExpectedCols: 9})
	report, err := p.Run(context.Background(), tx, path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.QualityGood {
		t.Fatalf("expected quality failure")
	}
	if len(report.QualityIssues) != 1 || !strings.Contains(report.QualityIssues[0], "future-dated") {
		t.Fatalf("issues = %v", report.QualityIssues)
	}
	if got := tx.statementsContaining("CREATE OR REPLACE VIEW"); len(got) != 2 {
		t.Fatalf("views not refreshed after quality failure: %v", got)
	}
}

// TestRun_LoadErrorAborts: a failing load stops the run before quality
// checks, views, or retention.
func TestRun_LoadErrorAborts(t *testing.T) {
	t.Parallel()

	path := writeCSV(t,
		"1001,2024-03-01 10:00:00+00,voice,7,1,0,60.5,12.50000000,2024-03",
	)

	boom := errors.New("out of disk")
	tx := &fakeTx{execFn: func(sql string, args []any) (db.RowCount, error) {
		if strings.Contains(sql, "CREATE TEMP TABLE") {
			return db.Unknown(), boom
		}
		return db.Count(0), nil
	}}

	p := New(testLogger(), Options{ExpectedCols: 9})
	_, err := p.Run(context.Background(), tx, path)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if got := tx.statementsContaining("CREATE OR REPLACE VIEW"); len(got) != 0 {
		t.Fatalf("views refreshed after aborted load: %v", got)
	}
	if got := tx.statementsContaining("DELETE FROM"); len(got) != 0 {
		t.Fatalf("retention ran after aborted load: %v", got)
	}
}

// TestRun_SchemaErrorAborts stops before any staging work.
func TestRun_SchemaErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("permission denied")
	tx := &fakeTx{execFn: func(sql string, args []any) (db.RowCount, error) {
		if strings.Contains(sql, "CREATE TABLE IF NOT EXISTS") {
			return db.Unknown(), boom
		}
		return db.Count(0), nil
	}}

	p := New(testLogger(), Options{ExpectedCols: 9})
	_, err := p.Run(context.Background(), tx, "unused.csv")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if got := tx.statementsContaining("CREATE TEMP TABLE"); len(got) != 0 {
		t.Fatalf("staging table created after schema failure: %v", got)
	}
}

func TestEnsureSchema_InstallsEverything(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	if err := EnsureSchema(context.Background(), tx, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if got := tx.statementsContaining("CREATE TABLE IF NOT EXISTS"); len(got) != 1 {
		t.Fatalf("table DDL: %v", got)
	}
	if got := tx.statementsContaining("CREATE OR REPLACE FUNCTION"); len(got) != 1 {
		t.Fatalf("function DDL: %v", got)
	}
	if got := tx.statementsContaining("CREATE INDEX IF NOT EXISTS"); len(got) != 4 {
		t.Fatalf("index DDL: %v", got)
	}
}

func TestRefreshViews(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	if err := RefreshViews(context.Background(), tx, testLogger()); err != nil {
		t.Fatalf("RefreshViews: %v", err)
	}
	if len(tx.execs) != 2 {
		t.Fatalf("statements = %v", tx.execs)
	}
	if !strings.Contains(tx.execs[0], "analytics_usage_distribution") ||
		!strings.Contains(tx.execs[1], "analytics_monthly_trends") {
		t.Fatalf("unexpected view order: %v", tx.execs)
	}
}

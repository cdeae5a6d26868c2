package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/eleonen/telco-dwh-project/internal/db"
	"github.com/eleonen/telco-dwh-project/internal/schema"
)

// copyBatchSize bounds how many parsed rows are buffered between COPY
// flushes into the staging table.
const copyBatchSize = 5000

// stagingSeq disambiguates staging table names within one process. Together
// with the pid this avoids the collision a wall-clock based name would risk
// under rapid successive invocations.
var stagingSeq atomic.Uint64

func stagingTableName() string {
	return fmt.Sprintf("telco_staging_%d_%d", os.Getpid(), stagingSeq.Add(1))
}

// LoadResult summarizes one staged bulk load.
type LoadResult struct {
	Staged   int64       // rows appended to the staging table
	Skipped  int         // malformed-width rows dropped with a warning
	Inserted db.RowCount // rows the merge actually inserted (duplicates excluded)
}

// Loader moves one CSV file into the permanent fact table through a
// transaction-scoped staging table. It owns the fact table's secondary index
// lifecycle around the bulk merge.
type Loader struct {
	log          *zap.SugaredLogger
	expectedCols int
}

func NewLoader(log *zap.SugaredLogger, expectedCols int) *Loader {
	return &Loader{log: log, expectedCols: expectedCols}
}

// Load runs inside the caller's open transaction:
//
//  1. create a TEMP staging table (ON COMMIT DROP) shaped like the fact
//     table minus the identity column;
//  2. stream the CSV, skipping rows with the wrong column count and
//     COPY-appending the rest in batches;
//  3. short-circuit when nothing was accepted;
//  4. drop whichever secondary indexes currently exist;
//  5. merge staging into the fact table, computing each row's identity via
//     generate_event_uuid, skipping duplicate identities;
//  6. recreate the secondary index set.
//
// Any error leaves the transaction poisoned; the caller must roll back, which
// also undoes the index drop. Re-running the same file is a no-op at the
// record level because duplicate identities are skipped.
func (l *Loader) Load(ctx context.Context, tx db.Tx, path string) (LoadResult, error) {
	res := LoadResult{Inserted: db.Count(0)}
	staging := stagingTableName()

	l.log.Infow("creating staging table", "table", staging)
	create := fmt.Sprintf(`CREATE TEMP TABLE %s (
    customer_id INTEGER,
    event_start_time TIMESTAMP WITH TIME ZONE,
    event_type VARCHAR(50),
    rate_plan_id INTEGER,
    billing_flag_one INTEGER,
    billing_flag_two INTEGER,
    duration FLOAT8,
    charge NUMERIC(18, 8),
    month VARCHAR(7)
) ON COMMIT DROP;`, staging)
	if _, err := tx.Exec(ctx, create); err != nil {
		return res, fmt.Errorf("create staging table %s: %w", staging, err)
	}

	if err := l.stageFile(ctx, tx, staging, path, &res); err != nil {
		return res, err
	}
	if res.Staged == 0 {
		l.log.Infow("no valid rows to load", "file", path, "skipped", res.Skipped)
		return res, nil
	}
	l.log.Infow("staged rows", "table", staging, "rows", res.Staged, "skipped", res.Skipped)

	if err := l.dropSecondaryIndexes(ctx, tx); err != nil {
		return res, err
	}

	merge := fmt.Sprintf(`INSERT INTO telco_billings_usage (
    customer_id, event_start_time, event_type, rate_plan_id,
    billing_flag_one, billing_flag_two, duration, charge, month, event_uuid
) SELECT
    s.*, generate_event_uuid(s.customer_id, s.event_start_time, s.event_type, s.rate_plan_id, s.charge)
FROM %s s
ON CONFLICT (event_uuid) DO NOTHING;`, staging)
	inserted, err := tx.Exec(ctx, merge)
	if err != nil {
		return res, fmt.Errorf("merge staging into %s: %w", schema.Table, err)
	}
	res.Inserted = inserted
	if n, ok := inserted.Value(); ok {
		dup := res.Staged - n
		if dup < 0 {
			dup = 0
		}
		l.log.Infow("merge complete", "inserted", n, "duplicates_skipped", dup)
	} else {
		l.log.Warnw("merge complete, rows-affected signal unavailable", "staged", res.Staged)
	}

	if err := l.recreateSecondaryIndexes(ctx, tx); err != nil {
		return res, err
	}
	return res, nil
}

// stageFile streams the CSV into the staging table. Rows with the wrong
// column count are logged and skipped; value-level parse failures abort.
func (l *Loader) stageFile(ctx context.Context, tx db.Tx, staging, path string, res *LoadResult) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	batch := make([][]any, 0, copyBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := tx.CopyInto(ctx, staging, schema.Columns, batch)
		if err != nil {
			return fmt.Errorf("stage batch: %w", err)
		}
		res.Staged += n
		batch = batch[:0]
		return nil
	}

	line := 0
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %q: %w", path, err)
		}
		line++
		if len(fields) != l.expectedCols {
			l.log.Warnw("skipping malformed row", "file", path, "row", line, "columns", len(fields), "expected", l.expectedCols)
			res.Skipped++
			continue
		}
		row, err := parseRow(fields)
		if err != nil {
			return fmt.Errorf("row %d of %q: %w", line, path, err)
		}
		batch = append(batch, row)
		if len(batch) >= copyBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// dropSecondaryIndexes drops each secondary index that currently exists,
// checked via pg_class, to speed up the bulk merge.
func (l *Loader) dropSecondaryIndexes(ctx context.Context, tx db.Tx) error {
	for _, idx := range schema.SecondaryIndexes {
		var one int
		err := tx.QueryRow(ctx, schema.IndexExists, strings.ToLower(idx.Name)).Scan(&one)
		if errors.Is(err, db.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("check index %s: %w", idx.Name, err)
		}
		if _, err := tx.Exec(ctx, "DROP INDEX IF EXISTS "+idx.Name+";"); err != nil {
			return fmt.Errorf("drop index %s: %w", idx.Name, err)
		}
		l.log.Debugw("dropped index before merge", "index", idx.Name)
	}
	return nil
}

// recreateSecondaryIndexes restores the full index set after the merge,
// regardless of how many rows it inserted.
func (l *Loader) recreateSecondaryIndexes(ctx context.Context, tx db.Tx) error {
	for _, idx := range schema.SecondaryIndexes {
		if _, err := tx.Exec(ctx, idx.Create); err != nil {
			return fmt.Errorf("recreate index %s: %w", idx.Name, err)
		}
		l.log.Debugw("recreated index", "index", idx.Name)
	}
	return nil
}

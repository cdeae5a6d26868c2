// Package pipeline implements the telco billings warehouse ETL stages:
// structural CSV validation, the staged bulk load with duplicate-safe merge,
// post-load data quality checks, analytics view refresh, and age-based
// retention. The orchestrator owns the transaction; every stage here runs on
// a db.Tx it is handed and never commits or rolls back itself.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eleonen/telco-dwh-project/internal/db"
	"github.com/eleonen/telco-dwh-project/internal/metrics"
)

// Pipeline sequences the warehouse stages over one transaction.
type Pipeline struct {
	log       *zap.SugaredLogger
	loader    *Loader
	checker   *Checker
	retention *Retention
}

// Options carries the configuration slice the pipeline needs; the orchestrator
// maps its Config onto this so the pipeline never reads ambient state.
type Options struct {
	ExpectedCols     int
	RetentionEnabled bool
	RetentionMonths  int
}

func New(log *zap.SugaredLogger, opts Options) *Pipeline {
	return &Pipeline{
		log:       log,
		loader:    NewLoader(log, opts.ExpectedCols),
		checker:   NewChecker(log),
		retention: NewRetention(log, opts.RetentionEnabled, opts.RetentionMonths),
	}
}

// Report is the outcome of one pipeline run, handed back to the orchestrator
// which owns alerting and the commit decision.
type Report struct {
	Load          LoadResult
	QualityGood   bool
	QualityIssues []string
	Deleted       db.RowCount
}

// Run executes schema setup, load, quality checks, view refresh, and
// retention, strictly in order, all on tx. The first error aborts the run;
// the caller must then roll back. A failed quality check is NOT an error: it
// is reported so already-loaded data survives the commit.
func (p *Pipeline) Run(ctx context.Context, tx db.Tx, path string) (Report, error) {
	report := Report{QualityGood: true, Deleted: db.Count(0)}

	err := p.step("schema_setup", func() error {
		return EnsureSchema(ctx, tx, p.log)
	})
	if err != nil {
		return report, err
	}

	err = p.step("load", func() error {
		var loadErr error
		report.Load, loadErr = p.loader.Load(ctx, tx, path)
		return loadErr
	})
	if err != nil {
		return report, err
	}
	metrics.IncCounter("telco_etl_rows_total", float64(report.Load.Staged), metrics.Labels{"kind": "staged"})
	metrics.IncCounter("telco_etl_rows_total", float64(report.Load.Skipped), metrics.Labels{"kind": "skipped"})
	if n, ok := report.Load.Inserted.Value(); ok {
		metrics.IncCounter("telco_etl_rows_total", float64(n), metrics.Labels{"kind": "inserted"})
	}

	_ = p.step("quality_checks", func() error {
		report.QualityGood, report.QualityIssues = p.checker.Check(ctx, tx)
		return nil
	})

	err = p.step("analytics_views", func() error {
		return RefreshViews(ctx, tx, p.log)
	})
	if err != nil {
		return report, err
	}

	err = p.step("retention", func() error {
		var retErr error
		report.Deleted, retErr = p.retention.Apply(ctx, tx)
		return retErr
	})
	if err != nil {
		return report, err
	}
	if n, ok := report.Deleted.Value(); ok {
		metrics.IncCounter("telco_etl_rows_total", float64(n), metrics.Labels{"kind": "deleted"})
	}

	return report, nil
}

// step times a stage, records its metrics, and logs completion in one place.
func (p *Pipeline) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := "ok"
	if err != nil {
		status = "error"
	}
	elapsed := time.Since(start)
	labels := metrics.Labels{"step": name, "status": status}
	metrics.ObserveDuration("telco_etl_step_duration_seconds", elapsed.Seconds(), labels)
	metrics.IncCounter("telco_etl_step_total", 1, labels)
	if err != nil {
		p.log.Errorw("step failed", "step", name, "duration", elapsed.Truncate(time.Millisecond), "error", err)
		return err
	}
	p.log.Infow("step completed", "step", name, "duration", elapsed.Truncate(time.Millisecond))
	return nil
}

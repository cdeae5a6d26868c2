// Command telcoetl runs the Telco billings warehouse ETL: it validates the
// input CSV, loads it into Postgres through a staged duplicate-safe merge,
// runs data quality checks, refreshes the analytics views, and applies the
// retention policy, all within a single transaction.
//
// Exit code is 0 on success and 1 on any fatal error. Fatal errors are
// classified into four alert categories (input file missing, validation,
// database, unexpected) which differ only in alert subject and log text.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/eleonen/telco-dwh-project/internal/alert"
	"github.com/eleonen/telco-dwh-project/internal/config"
	"github.com/eleonen/telco-dwh-project/internal/db"
	"github.com/eleonen/telco-dwh-project/internal/logging"
	"github.com/eleonen/telco-dwh-project/internal/metrics"
	"github.com/eleonen/telco-dwh-project/internal/metrics/prompush"
	"github.com/eleonen/telco-dwh-project/internal/pipeline"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger setup:", err)
		os.Exit(1)
	}

	// os.Exit skips deferred calls, so flush the logger before exiting.
	code := run(context.Background(), logger.Sugar(), cfg)
	_ = logger.Sync()
	os.Exit(code)
}

func run(ctx context.Context, log *zap.SugaredLogger, cfg *config.Config) int {
	start := time.Now()
	log.Infow("starting telco billings warehouse ETL",
		"file", cfg.CSVPath,
		"retention_enabled", cfg.RetentionEnabled,
		"retention_months", cfg.RetentionMonths,
	)

	if cfg.PushgatewayURL != "" {
		backend, err := prompush.NewBackend("telco_etl", cfg.PushgatewayURL)
		if err != nil {
			log.Warnw("metrics backend setup failed, continuing without metrics", "error", err)
		} else {
			metrics.SetBackend(backend)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Warnw("metrics push failed", "gateway", cfg.PushgatewayURL, "error", err)
				}
			}()
		}
	}

	notifier := alert.NewNotifier(log, alert.Settings{
		Sender:   cfg.AlertSender,
		Receiver: cfg.AlertReceiver,
		Server:   cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
	})

	if err := etl(ctx, log, cfg, notifier); err != nil {
		subject, issues := classify(err)
		log.Errorw("ETL aborted", "category", subject, "error", err)
		notifier.Send(subject, issues)
		return 1
	}

	log.Infow("ETL process completed successfully", "duration", time.Since(start).Truncate(time.Millisecond))
	return 0
}

// etl performs one complete run. Every database statement happens inside a
// single transaction; any error after BeginTx rolls everything back,
// including the schema setup and the index drops.
func etl(ctx context.Context, log *zap.SugaredLogger, cfg *config.Config, notifier *alert.Notifier) error {
	if err := pipeline.ValidateStructure(cfg.CSVPath, cfg.ExpectedCols); err != nil {
		return err
	}
	logFingerprint(log, cfg.CSVPath)

	database, err := db.NewPgDB(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer database.Close(ctx)
	log.Infow("database connection established", "host", cfg.DBHost, "database", cfg.DBName)

	tx, err := database.BeginTx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	p := pipeline.New(log, pipeline.Options{
		ExpectedCols:     cfg.ExpectedCols,
		RetentionEnabled: cfg.RetentionEnabled,
		RetentionMonths:  cfg.RetentionMonths,
	})
	report, err := p.Run(ctx, tx, cfg.CSVPath)
	if err != nil {
		return err
	}

	// Quality problems are alerted but never block the commit: the data
	// already loaded cleanly and the issues describe its content.
	if !report.QualityGood {
		notifier.Send("Telco DWH ETL: Data Quality Issues Found", report.QualityIssues)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true

	log.Infow("transaction committed",
		"staged", report.Load.Staged,
		"inserted", report.Load.Inserted.String(),
		"skipped", report.Load.Skipped,
		"deleted", report.Deleted.String(),
	)
	return nil
}

// logFingerprint records the input's content digest so a load can be traced
// back to the exact bytes. Hashing failure is reported, never fatal.
func logFingerprint(log *zap.SugaredLogger, path string) {
	fp, err := pipeline.Fingerprint(path)
	if err != nil {
		log.Warnw("input file fingerprint unavailable", "file", path, "error", err)
		return
	}
	log.Infow("input file validated", "file", path, "fingerprint", fp)
}

// classify maps a fatal error to its alert subject and issue list. Order
// matters: a missing input file and a structural validation problem are both
// detected before any database work, so those branches win over the
// database check.
func classify(err error) (subject string, issues []string) {
	var verr *pipeline.ValidationError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "Telco ETL Critical Failure: Input File Missing", []string{err.Error()}
	case errors.As(err, &verr):
		return "Telco ETL Critical Failure: Data Validation Error", []string{err.Error()}
	case db.IsDatabaseError(err):
		return "Telco ETL Critical Failure: Database Error", []string{fmt.Sprintf("DB Error: %v. Check logs.", err)}
	default:
		return "Telco ETL Critical Failure: Unexpected System Error", []string{err.Error()}
	}
}

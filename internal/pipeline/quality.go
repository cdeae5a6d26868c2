package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eleonen/telco-dwh-project/internal/db"
	"github.com/eleonen/telco-dwh-project/internal/schema"
)

// Checker runs the post-load data quality queries. It inspects the data just
// loaded in the same transaction, so results are never a stale snapshot.
type Checker struct {
	log *zap.SugaredLogger
}

func NewChecker(log *zap.SugaredLogger) *Checker {
	return &Checker{log: log}
}

// Check runs the missing-values and future-dated checks and returns whether
// quality is good plus human-readable issue strings. It never returns an
// error: a failing query downgrades to a failed quality result so that a
// broken check cannot abort data that already loaded cleanly.
func (c *Checker) Check(ctx context.Context, tx db.Tx) (bool, []string) {
	good := true
	var issues []string

	var missCID, missTime, missType, total int64
	err := tx.QueryRow(ctx, schema.CheckMissingValues).Scan(&missCID, &missTime, &missType, &total)
	switch {
	case errors.Is(err, db.ErrNoRows):
		c.log.Warnw("missing-values check returned no row")
	case err != nil:
		c.log.Errorw("data quality check failed", "check", "missing_values", "error", err)
		return false, []string{fmt.Sprintf("data quality check error: %v", err)}
	default:
		if total > 0 && (missCID > 0 || missTime > 0 || missType > 0) {
			issues = append(issues, fmt.Sprintf(
				"missing values (customer/time/type): %d/%d/%d in %d recent rows",
				missCID, missTime, missType, total))
			good = false
		}
	}

	var future int64
	err = tx.QueryRow(ctx, schema.CheckFutureDates).Scan(&future)
	switch {
	case errors.Is(err, db.ErrNoRows):
		c.log.Warnw("future-dated check returned no row")
	case err != nil:
		c.log.Errorw("data quality check failed", "check", "future_dates", "error", err)
		return false, []string{fmt.Sprintf("data quality check error: %v", err)}
	default:
		if future > 0 {
			issues = append(issues, fmt.Sprintf("future-dated events: %d", future))
			good = false
		}
	}

	if len(issues) > 0 {
		c.log.Warnw("data quality issues found", "issues", strings.Join(issues, "; "))
	} else {
		c.log.Infow("data quality checks passed")
	}
	return good, issues
}

package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eleonen/telco-dwh-project/internal/db"
	"github.com/eleonen/telco-dwh-project/internal/schema"
)

// Retention deletes fact rows older than the configured horizon. Disabled
// retention is a logged no-op that issues no statement at all.
type Retention struct {
	log     *zap.SugaredLogger
	enabled bool
	months  int
}

func NewRetention(log *zap.SugaredLogger, enabled bool, months int) *Retention {
	return &Retention{log: log, enabled: enabled, months: months}
}

// Apply runs the retention delete inside the caller's transaction and
// reports how many rows it removed. Rows exactly on the horizon boundary
// survive; only strictly older rows are deleted.
func (r *Retention) Apply(ctx context.Context, tx db.Tx) (db.RowCount, error) {
	if !r.enabled {
		r.log.Infow("retention skipped (disabled in config)")
		return db.Count(0), nil
	}

	r.log.Infow("applying retention policy", "months", r.months)
	n, err := tx.Exec(ctx, schema.DeleteExpired, r.months)
	if err != nil {
		return db.Unknown(), fmt.Errorf("delete expired rows: %w", err)
	}
	r.log.Infow("retention delete complete", "deleted", n.String())
	return n, nil
}

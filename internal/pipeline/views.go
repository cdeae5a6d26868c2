package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eleonen/telco-dwh-project/internal/db"
	"github.com/eleonen/telco-dwh-project/internal/schema"
)

// RefreshViews redefines the two analytics views over the full fact table.
// There is no incremental maintenance; each statement fully replaces the
// view. Errors propagate and abort the enclosing transaction.
func RefreshViews(ctx context.Context, tx db.Tx, log *zap.SugaredLogger) error {
	log.Infow("refreshing analytics views")
	if _, err := tx.Exec(ctx, schema.CreateUsageDistributionView); err != nil {
		return fmt.Errorf("create view analytics_usage_distribution: %w", err)
	}
	if _, err := tx.Exec(ctx, schema.CreateMonthlyTrendsView); err != nil {
		return fmt.Errorf("create view analytics_monthly_trends: %w", err)
	}
	return nil
}

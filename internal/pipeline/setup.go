package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eleonen/telco-dwh-project/internal/db"
	"github.com/eleonen/telco-dwh-project/internal/schema"
)

// EnsureSchema installs the warehouse structures the load depends on: the
// fact table, the identity function, and the secondary index set. Every
// statement is idempotent so this runs at the start of each pipeline
// transaction.
func EnsureSchema(ctx context.Context, tx db.Tx, log *zap.SugaredLogger) error {
	log.Infow("ensuring warehouse schema", "table", schema.Table)
	if _, err := tx.Exec(ctx, schema.CreateTable); err != nil {
		return fmt.Errorf("create table %s: %w", schema.Table, err)
	}
	if _, err := tx.Exec(ctx, schema.GenerateEventUUID); err != nil {
		return fmt.Errorf("create identity function: %w", err)
	}
	for _, idx := range schema.SecondaryIndexes {
		if _, err := tx.Exec(ctx, idx.CreateIfNotExists); err != nil {
			return fmt.Errorf("create index %s: %w", idx.Name, err)
		}
	}
	return nil
}

package migrations

import (
	"context"
	"fmt"
	"log/slog"

	"churn-feature-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies all embedded PostgreSQL files in lexical order.
// Files use IF NOT EXISTS so reapplying is harmless.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	files, err := loadFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, f := range files {
		if _, err := pool.Exec(ctx, f.SQL); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.Name, err)
		}
		logger.Debug("applied postgres migration", "file", f.Name)
	}

	return nil
}

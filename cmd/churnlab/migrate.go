package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"churn-feature-lab/internal/storage/migrations"
	pgstore "churn-feature-lab/internal/storage/postgres"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded warehouse schema",
		Long: `Create the clients table in PostgreSQL and the prices table in
ClickHouse. Every statement is idempotent, so re-running is safe.`,
		RunE: runMigrate,
	}

	cmd.Flags().String("target", "all", "which database to migrate (all, postgres, clickhouse)")
	bindFlag(cmd.Flags(), "postgres-dsn", "storage.postgres_dsn", func(fs *pflag.FlagSet) {
		fs.String("postgres-dsn", "", "PostgreSQL DSN")
	})
	bindFlag(cmd.Flags(), "clickhouse-dsn", "storage.clickhouse_dsn", func(fs *pflag.FlagSet) {
		fs.String("clickhouse-dsn", "", "ClickHouse DSN")
	})

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	target, _ := cmd.Flags().GetString("target")

	switch target {
	case "all", "postgres", "clickhouse":
	default:
		return fmt.Errorf("unknown target %q", target)
	}

	if target != "clickhouse" {
		if cfg.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required")
		}
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		err = migrations.RunPostgresMigrations(ctx, pool, logger)
		pool.Close()
		if err != nil {
			return fmt.Errorf("postgres migration failed: %w", err)
		}
	}

	if target != "postgres" {
		if cfg.Storage.ClickhouseDSN == "" {
			return errors.New("storage.clickhouse_dsn is required")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN, logger)
		if err != nil {
			return fmt.Errorf("clickhouse migration failed: %w", err)
		}
		if err := conn.Close(); err != nil {
			return err
		}
	}

	logger.Info("migrations completed", "target", target)
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"churn-feature-lab/internal/config"
	"churn-feature-lab/internal/features"
	"churn-feature-lab/internal/ingestion"
	"churn-feature-lab/internal/observability"
	"churn-feature-lab/internal/orchestrator"
	"churn-feature-lab/internal/pipeline"
	"churn-feature-lab/internal/storage"
	chstore "churn-feature-lab/internal/storage/clickhouse"
	"churn-feature-lab/internal/storage/memory"
	pgstore "churn-feature-lab/internal/storage/postgres"
)

// sources holds the source stores of the configured backend.
type sources struct {
	clients storage.ClientStore
	prices  storage.PriceStore
	close   func()
}

// openSources opens the stores of cfg.Storage.Backend.
func openSources(ctx context.Context, cfg *config.Config, m *observability.Metrics) (*sources, error) {
	if cfg.Storage.Backend != config.BackendWarehouse {
		return &sources{
			clients: memory.NewClientStore(),
			prices:  memory.NewPriceStore(),
			close:   func() {},
		}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	return &sources{
		clients: pgstore.NewClientStore(pool.WithMetrics(m)),
		prices:  chstore.NewPriceStore(conn).WithMetrics(m),
		close: func() {
			conn.Close()
			pool.Close()
		},
	}, nil
}

// loadInputs fills memory stores from fixtures or the configured CSV files.
// Warehouse stores are read as they are; use `churnlab ingest` to fill them.
// Returns the data source recorded in reports.
func loadInputs(ctx context.Context, cfg *config.Config, src *sources, useFixtures bool) (string, error) {
	if cfg.Storage.Backend == config.BackendWarehouse {
		if useFixtures {
			return "", fmt.Errorf("--use-fixtures requires the memory backend")
		}
		return pipeline.DataSourceWarehouse, nil
	}

	if useFixtures {
		if err := pipeline.LoadFixtures(ctx, src.clients, src.prices); err != nil {
			return "", err
		}
		return pipeline.DataSourceFixtures, nil
	}

	manager := ingestion.NewManager(ingestion.ManagerOptions{
		ClientSource: ingestion.NewCSVClientSource(cfg.Input.ClientsPath),
		PriceSource:  ingestion.NewCSVPriceSource(cfg.Input.PricesPath),
		ClientStore:  src.clients,
		PriceStore:   src.prices,
		Logger:       logger,
	})
	if _, err := manager.IngestAll(ctx); err != nil {
		return "", err
	}
	return pipeline.DataSourceCSV, nil
}

// newOrchestrator wires an orchestrator from cfg.
func newOrchestrator(cfg *config.Config, src *sources, m *observability.Metrics) *orchestrator.Orchestrator {
	deriver := features.NewDeriver().
		WithCalendarColumns(cfg.Features.CalendarColumns).
		WithFlagColumns(cfg.Features.FlagColumns).
		WithLogger(logger)

	return orchestrator.New(orchestrator.Options{
		ClientStore:   src.clients,
		PriceStore:    src.prices,
		Deriver:       deriver,
		Attributes:    cfg.Features.ChurnAttributes,
		SortByOutcome: cfg.Features.SortByOutcome,
		Logger:        logger,
		Metrics:       m,
	})
}

// addInputFlags registers the flags shared by commands that read inputs.
func addInputFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	bindFlag(fs, "backend", "storage.backend", func(fs *pflag.FlagSet) {
		fs.String("backend", config.BackendMemory, "source backend (memory, warehouse)")
	})
	bindFlag(fs, "clients", "input.clients_path", func(fs *pflag.FlagSet) {
		fs.String("clients", "", "client table CSV (memory backend)")
	})
	bindFlag(fs, "prices", "input.prices_path", func(fs *pflag.FlagSet) {
		fs.String("prices", "", "price table CSV (memory backend)")
	})
	fs.Bool("use-fixtures", false, "use the built-in demonstration dataset (memory backend)")
	fs.Int("sort-by", 0, "sort churn table rows by this outcome's percentage, descending")
}

// applySortFlag overrides features.sort_by_outcome when --sort-by is given.
func applySortFlag(cmd *cobra.Command, cfg *config.Config) error {
	if !cmd.Flags().Changed("sort-by") {
		return nil
	}
	sortBy, err := cmd.Flags().GetInt("sort-by")
	if err != nil {
		return err
	}
	cfg.Features.SortByOutcome = &sortBy
	return cfg.Validate()
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"churn-feature-lab/internal/config"
	"churn-feature-lab/internal/ingestion"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load client and price CSV files into the warehouse",
		Long: `Decode the client and price CSV tables and insert them into
PostgreSQL (clients) and ClickHouse (prices). The batch is rejected if any
client id already exists.`,
		RunE: runIngest,
	}
	addInputFlags(cmd)
	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if cfg.Storage.Backend != config.BackendWarehouse {
		return errors.New("ingest requires storage.backend=warehouse (set --backend warehouse)")
	}

	src, err := openSources(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer src.close()

	manager := ingestion.NewManager(ingestion.ManagerOptions{
		ClientSource: ingestion.NewCSVClientSource(cfg.Input.ClientsPath),
		PriceSource:  ingestion.NewCSVPriceSource(cfg.Input.PricesPath),
		ClientStore:  src.clients,
		PriceStore:   src.prices,
		Logger:       logger,
	})

	counts, err := manager.IngestAll(ctx)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d clients and %d price records\n", counts.Clients, counts.Prices)
	return nil
}

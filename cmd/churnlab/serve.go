package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"churn-feature-lab/internal/observability"
	"churn-feature-lab/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve churn tables and data quality over HTTP",
		Long: `Run the pipeline once at startup and serve its results:

  GET  /health
  GET  /api/v1/churn
  GET  /api/v1/churn/{attribute}?sort_by=<outcome>
  GET  /api/v1/quality
  POST /api/v1/runs
  GET  /metrics`,
		RunE: runServe,
	}

	addInputFlags(cmd)
	bindFlag(cmd.Flags(), "addr", "server.addr", func(fs *pflag.FlagSet) {
		fs.String("addr", "", "listen address")
	})
	bindFlag(cmd.Flags(), "interval", "server.run_interval", func(fs *pflag.FlagSet) {
		fs.Duration("interval", 0, "re-run the pipeline at this interval (0 disables)")
	})

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	useFixtures, _ := cmd.Flags().GetBool("use-fixtures")
	if err := applySortFlag(cmd, cfg); err != nil {
		return err
	}

	m := observability.NewMetrics("", nil)

	src, err := openSources(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer src.close()

	if _, err := loadInputs(ctx, cfg, src, useFixtures); err != nil {
		return err
	}

	srv := server.New(newOrchestrator(cfg, src, m), server.Options{Logger: logger, Metrics: m})

	if _, err := srv.TriggerRun(ctx); err != nil {
		logger.Error("initial pipeline run failed", "error", err)
	}
	if cfg.Server.RunInterval > 0 {
		go runPeriodically(ctx, srv, cfg.Server.RunInterval)
	}

	return srv.ListenAndServe(ctx, cfg.Server.Addr,
		cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout)
}

// runPeriodically triggers a run every interval until ctx is cancelled.
// A tick that finds a run in progress is skipped.
func runPeriodically(ctx context.Context, srv *server.Server, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := srv.TriggerRun(ctx); err != nil {
				logger.Warn("scheduled pipeline run failed", "error", err)
			}
		}
	}
}

// Command churnlab derives churn features from client and price tables.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"churn-feature-lab/internal/config"
	"churn-feature-lab/internal/observability"
)

// viperKeyAnnotation maps a flag to the configuration key it overrides.
const viperKeyAnnotation = "churnlab_viper_key"

var (
	cfgFile string
	version = "dev"

	v      = viper.New()
	cfg    *config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "churnlab",
		Short: "Churn feature derivation lab",
		Long: `churnlab normalizes client and price tables, derives churn features
(calendar parts, contract duration, consumption ratio, price volatility,
binary flags, December-January price deltas) and cross-tabulates churn by
categorical attributes.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./churnlab.yaml)")
	bindFlag(rootCmd.PersistentFlags(), "log-level", "logging.level", func(fs *pflag.FlagSet) {
		fs.String("log-level", "info", "log level (debug, info, warn, error)")
	})
	bindFlag(rootCmd.PersistentFlags(), "log-format", "logging.format", func(fs *pflag.FlagSet) {
		fs.String("log-format", "text", "log format (text, json)")
	})

	// Add commands
	rootCmd.AddCommand(pipelineCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(crosstabCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received interrupt signal, shutting down")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bindFlag defines a flag with define and marks it as overriding key.
func bindFlag(fs *pflag.FlagSet, name, key string, define func(*pflag.FlagSet)) {
	define(fs)
	_ = fs.SetAnnotation(name, viperKeyAnnotation, []string{key})
}

// initConfig binds the executing command's annotated flags, loads the
// configuration and sets up logging.
func initConfig(cmd *cobra.Command, _ []string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys, ok := f.Annotations[viperKeyAnnotation]; ok && bindErr == nil {
			bindErr = v.BindPFlag(keys[0], f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	logger, err = observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "churnlab %s\n", version)
		},
	}
}

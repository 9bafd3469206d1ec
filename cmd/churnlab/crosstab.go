package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"churn-feature-lab/internal/metrics"
	"churn-feature-lab/internal/reporting"
	"churn-feature-lab/internal/table"
)

func crosstabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crosstab <attribute>",
		Short: "Print one churn table as CSV",
		Long: fmt.Sprintf(`Run the pipeline in memory and print the churn table of one
categorical attribute to stdout. Nothing is written to disk.

Attributes: %s`, strings.Join(metrics.Attributes(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: runCrosstab,
	}
	addInputFlags(cmd)
	return cmd
}

func runCrosstab(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	attribute := args[0]
	if !metrics.IsAttribute(attribute) {
		return fmt.Errorf("unknown attribute %q (known: %s)", attribute, strings.Join(metrics.Attributes(), ", "))
	}

	useFixtures, _ := cmd.Flags().GetBool("use-fixtures")
	if err := applySortFlag(cmd, cfg); err != nil {
		return err
	}
	cfg.Features.ChurnAttributes = []string{attribute}

	src, err := openSources(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer src.close()

	if _, err := loadInputs(ctx, cfg, src, useFixtures); err != nil {
		return err
	}

	result, err := newOrchestrator(cfg, src, nil).Run(ctx)
	if err != nil {
		return err
	}
	if len(result.Tables) == 0 {
		return errors.New(strings.Join(result.Notes, "; "))
	}

	return table.WriteCSV(cmd.OutOrStdout(), reporting.ChurnTable(result.Tables[0]))
}

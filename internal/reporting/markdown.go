package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"churn-feature-lab/internal/domain"
)

// MaxListedWarnings caps the per-warning list; counts always cover all warnings.
const MaxListedWarnings = 50

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Data Quality Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Clients | %d |\n", r.DataSummary.Clients))
	sb.WriteString(fmt.Sprintf("| Price Records | %d |\n", r.DataSummary.PriceRecords))
	sb.WriteString(fmt.Sprintf("| Monthly Aggregates | %d |\n", r.DataSummary.MonthlyAggregates))
	sb.WriteString(fmt.Sprintf("| Seasonal Deltas | %d |\n", r.DataSummary.SeasonalDeltas))
	sb.WriteString(fmt.Sprintf("| Enhanced Records | %d |\n", r.DataSummary.EnhancedRecords))
	sb.WriteString(fmt.Sprintf("| Clients With Price History | %d |\n", r.DataSummary.ClientsWithPriceHistory))
	sb.WriteString(fmt.Sprintf("| Churned Clients | %d |\n", r.DataSummary.ChurnedClients))
	sb.WriteString("\n")

	renderDataQuality(&sb, &r.DataQuality)
	renderChurnTables(&sb, r.ChurnTables)

	// Reproducibility
	sb.WriteString("## Reproducibility\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Generator Version | %s |\n", r.Reproducibility.GeneratorVersion))
	sb.WriteString(fmt.Sprintf("| Data Version | %s |\n", r.Reproducibility.DataVersion))
	sb.WriteString(fmt.Sprintf("| Data Source | %s |\n", r.Reproducibility.DataSource))
	if r.Reproducibility.ReplayCommand != "" {
		sb.WriteString(fmt.Sprintf("| Replay Command | `%s` |\n", r.Reproducibility.ReplayCommand))
	}
	sb.WriteString("\n")

	return sb.String()
}

func renderDataQuality(sb *strings.Builder, q *DataQualitySection) {
	sb.WriteString("## Data Quality\n\n")

	if len(q.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range q.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if q.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Interpret the churn tables with care.\n\n")
		}
	}

	// Integrity errors (always shown if present)
	if len(q.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range q.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Warnings\n\n")
	sb.WriteString("| Kind | Count |\n")
	sb.WriteString("|------|-------|\n")
	for _, row := range q.WarningCounts {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", row.Kind, row.Count))
	}
	sb.WriteString("\n")

	if len(q.Warnings) > 0 {
		for i, w := range q.Warnings {
			if i == MaxListedWarnings {
				sb.WriteString(fmt.Sprintf("- ... and %d more\n", len(q.Warnings)-MaxListedWarnings))
				break
			}
			sb.WriteString("- " + formatWarning(w) + "\n")
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No warnings.\n\n")
	}

	if len(q.Notes) > 0 {
		sb.WriteString("### Notes\n\n")
		for _, note := range q.Notes {
			sb.WriteString(fmt.Sprintf("- %s\n", note))
		}
		sb.WriteString("\n")
	}
}

func formatWarning(w domain.DataQualityWarning) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("`%s` client `%s`", w.Kind, w.ClientID))
	if w.Column != "" {
		sb.WriteString(fmt.Sprintf(" column `%s`", w.Column))
	}
	if w.Value != "" {
		sb.WriteString(fmt.Sprintf(" value `%s`", w.Value))
	}
	if w.Message != "" {
		sb.WriteString(": " + w.Message)
	}
	return sb.String()
}

func renderChurnTables(sb *strings.Builder, tables []*domain.ChurnAggregateTable) {
	sb.WriteString("## Churn Tables\n\n")
	if len(tables) == 0 {
		sb.WriteString("No churn tables available.\n\n")
		return
	}

	for _, t := range tables {
		sb.WriteString(fmt.Sprintf("### churn by %s\n\n", t.Attribute))
		if t.SortedBy != nil {
			sb.WriteString(fmt.Sprintf("Sorted by outcome %d (descending).\n\n", *t.SortedBy))
		}

		header := []string{t.Attribute}
		for _, o := range t.Outcomes {
			header = append(header, "churn="+strconv.Itoa(o)+" %")
		}
		header = append(header, "Clients")
		sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
		sb.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")

		for _, row := range t.Rows {
			cells := []string{row.Category}
			for _, p := range row.Percentages {
				cells = append(cells, fmt.Sprintf("%.2f", p))
			}
			cells = append(cells, strconv.Itoa(row.Total))
			sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
		sb.WriteString("\n")
	}
}

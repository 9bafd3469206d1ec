package reporting

import (
	"time"

	"churn-feature-lab/internal/domain"
)

// Report represents the data quality report of one pipeline run.
type Report struct {
	// Metadata
	RunID       string
	GeneratedAt time.Time

	// Data Summary
	DataSummary DataSummary

	// Data Quality (sufficiency checks, warnings, notes)
	DataQuality DataQualitySection

	// Churn tables, ordered by attribute
	ChurnTables []*domain.ChurnAggregateTable

	// Reproducibility metadata, filled by the pipeline
	Reproducibility ReproducibilityMetadata
}

// RunSummary carries the counts of one orchestrator run into the generator.
type RunSummary struct {
	RunID             string
	ClientsLoaded     int
	PricesLoaded      int
	MonthlyAggregates int
	DeltasComputed    int
	Warnings          []domain.DataQualityWarning
	Notes             []string
}

// DataSummary contains data description.
type DataSummary struct {
	Clients                 int
	PriceRecords            int
	MonthlyAggregates       int
	SeasonalDeltas          int
	EnhancedRecords         int
	ClientsWithPriceHistory int
	ChurnedClients          int
}

// DataQualitySection contains sufficiency checks, integrity errors and
// the non-fatal warnings raised during feature derivation.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool

	WarningCounts []WarningCountRow // one per kind, in domain.WarningKinds order
	Warnings      []domain.DataQualityWarning
	Notes         []string
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// WarningCountRow is the number of warnings of one kind.
type WarningCountRow struct {
	Kind  domain.WarningKind
	Count int
}

// ReproducibilityMetadata identifies the code and data behind a report.
type ReproducibilityMetadata struct {
	GeneratorVersion string
	DataVersion      string // fingerprint of the written outputs
	DataSource       string
	ReplayCommand    string
}

// TotalWarnings sums the per-kind warning counts.
func (s DataQualitySection) TotalWarnings() int {
	total := 0
	for _, row := range s.WarningCounts {
		total += row.Count
	}
	return total
}

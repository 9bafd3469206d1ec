package reporting

import (
	"context"
	"time"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	enhancedStore storage.EnhancedClientStore
	tableStore    storage.ChurnTableStore
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(enhancedStore storage.EnhancedClientStore, tableStore storage.ChurnTableStore) *Generator {
	return &Generator{
		enhancedStore: enhancedStore,
		tableStore:    tableStore,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report for one run.
func (g *Generator) Generate(ctx context.Context, run RunSummary) (*Report, error) {
	enhanced, err := g.enhancedStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	tables, err := g.tableStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return &Report{
		RunID:       run.RunID,
		GeneratedAt: g.now(),
		DataSummary: generateDataSummary(run, enhanced),
		DataQuality: DataQualitySection{
			AllChecksPassed: true,
			WarningCounts:   countWarnings(run.Warnings),
			Warnings:        run.Warnings,
			Notes:           run.Notes,
		},
		ChurnTables: tables,
	}, nil
}

func generateDataSummary(run RunSummary, enhanced []*domain.EnhancedClientRecord) DataSummary {
	summary := DataSummary{
		Clients:           run.ClientsLoaded,
		PriceRecords:      run.PricesLoaded,
		MonthlyAggregates: run.MonthlyAggregates,
		SeasonalDeltas:    run.DeltasComputed,
		EnhancedRecords:   len(enhanced),
	}
	for _, e := range enhanced {
		if e.HasPriceHistory() {
			summary.ClientsWithPriceHistory++
		}
		if e.Churn == domain.OutcomeChurned {
			summary.ChurnedClients++
		}
	}
	return summary
}

// countWarnings returns one row per known kind, zero counts included.
// Kinds outside domain.WarningKinds are appended in first-seen order.
func countWarnings(warnings []domain.DataQualityWarning) []WarningCountRow {
	counts := make(map[domain.WarningKind]int)
	var extra []domain.WarningKind
	known := make(map[domain.WarningKind]bool, len(domain.WarningKinds))
	for _, k := range domain.WarningKinds {
		known[k] = true
	}

	for _, w := range warnings {
		if !known[w.Kind] && counts[w.Kind] == 0 {
			extra = append(extra, w.Kind)
		}
		counts[w.Kind]++
	}

	rows := make([]WarningCountRow, 0, len(domain.WarningKinds)+len(extra))
	for _, k := range domain.WarningKinds {
		rows = append(rows, WarningCountRow{Kind: k, Count: counts[k]})
	}
	for _, k := range extra {
		rows = append(rows, WarningCountRow{Kind: k, Count: counts[k]})
	}
	return rows
}

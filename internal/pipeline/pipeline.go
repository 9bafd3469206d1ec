// Package pipeline runs the orchestrator and writes its outputs: the
// enhanced client table, one churn table per attribute and the data
// quality report.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mr-tron/base58"

	"churn-feature-lab/internal/observability"
	"churn-feature-lab/internal/orchestrator"
	"churn-feature-lab/internal/reporting"
)

// GeneratorVersion is recorded in every report for reproducibility.
const GeneratorVersion = "1.0.0"

// Output file names.
const (
	EnhancedClientsFile = "enhanced_clients.csv"
	ReportFile          = "DATA_QUALITY_REPORT.md"
)

// Data sources recorded in the report.
const (
	DataSourceFixtures  = "fixtures"
	DataSourceCSV       = "csv"
	DataSourceWarehouse = "warehouse"
)

// Pipeline orchestrates a run and writes its output files.
type Pipeline struct {
	orch               *orchestrator.Orchestrator
	sufficiencyChecker *SufficiencyChecker // optional
	outputDir          string
	clock              func() time.Time
	logger             *slog.Logger
	metrics            *observability.Metrics
	dataSource         string
}

// Output describes one completed pipeline run.
type Output struct {
	Result *orchestrator.RunResult
	Report *reporting.Report
	Files  []string // written paths, in write order
}

// New creates a new pipeline writing into outputDir.
func New(orch *orchestrator.Orchestrator, outputDir string) *Pipeline {
	return &Pipeline{
		orch:       orch,
		outputDir:  outputDir,
		clock:      func() time.Time { return time.Now().UTC() },
		logger:     slog.Default(),
		dataSource: DataSourceCSV,
	}
}

// WithSufficiencyChecker adds coverage checks to the report.
func (p *Pipeline) WithSufficiencyChecker(c *SufficiencyChecker) *Pipeline {
	p.sufficiencyChecker = c
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// WithLogger sets the logger.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithMetrics sets the metrics sink.
func (p *Pipeline) WithMetrics(m *observability.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// WithDataSource sets the data source for reproducibility metadata.
func (p *Pipeline) WithDataSource(source string) *Pipeline {
	p.dataSource = source
	return p
}

// Run executes the orchestrator and writes output files:
//   - enhanced_clients.csv
//   - churn_by_<attribute>.csv, one per computed table
//   - DATA_QUALITY_REPORT.md
//
// Nothing is written when the orchestrator fails.
func (p *Pipeline) Run(ctx context.Context) (*Output, error) {
	result, err := p.orch.Run(ctx)
	if err != nil {
		return nil, err
	}

	// 1. Generate report from the run's derived stores
	gen := reporting.NewGenerator(result.EnhancedStore, result.TableStore).WithClock(p.clock)
	report, err := gen.Generate(ctx, reporting.RunSummary{
		RunID:             result.RunID,
		ClientsLoaded:     result.ClientsLoaded,
		PricesLoaded:      result.PricesLoaded,
		MonthlyAggregates: result.MonthlyAggregates,
		DeltasComputed:    result.DeltasComputed,
		Warnings:          result.Warnings,
		Notes:             result.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	// 2. Sufficiency checks (if configured)
	if p.sufficiencyChecker != nil {
		suff, err := p.sufficiencyChecker.Check(ctx, result.EnhancedStore)
		if err != nil {
			return nil, fmt.Errorf("sufficiency check: %w", err)
		}
		applySufficiency(&report.DataQuality, suff)
	}

	// 3. Render CSV outputs
	deriver := p.orch.Deriver()
	enhancedCSV, err := reporting.RenderCSV(reporting.EnhancedClientsTable(
		result.Enhanced, deriver.CalendarColumns(), deriver.FlagColumns()))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", EnhancedClientsFile, err)
	}

	files := []outputFile{{name: EnhancedClientsFile, data: enhancedCSV}}
	for _, t := range report.ChurnTables {
		data, err := reporting.RenderCSV(reporting.ChurnTable(t))
		if err != nil {
			return nil, fmt.Errorf("render churn table %s: %w", t.Attribute, err)
		}
		files = append(files, outputFile{name: reporting.ChurnTableFileName(t.Attribute), data: data})
	}

	// 4. Reproducibility metadata (DataVersion covers every CSV output)
	report.Reproducibility = reporting.ReproducibilityMetadata{
		GeneratorVersion: GeneratorVersion,
		DataVersion:      computeDataVersion(files),
		DataSource:       p.dataSource,
		ReplayCommand:    p.buildReplayCommand(),
	}
	files = append(files, outputFile{name: ReportFile, data: []byte(reporting.RenderMarkdown(report))})

	// 5. Write everything
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, err
	}
	out := &Output{Result: result, Report: report}
	for _, f := range files {
		path := filepath.Join(p.outputDir, f.name)
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			return nil, err
		}
		out.Files = append(out.Files, path)
	}

	if p.metrics != nil {
		p.metrics.ReportsGenerated.Inc()
	}
	p.logger.Info("outputs written",
		"run_id", result.RunID,
		"dir", p.outputDir,
		"files", len(out.Files),
		"data_version", report.Reproducibility.DataVersion,
	)
	return out, nil
}

type outputFile struct {
	name string
	data []byte
}

// buildReplayCommand returns the command to reproduce this report.
func (p *Pipeline) buildReplayCommand() string {
	switch p.dataSource {
	case DataSourceFixtures:
		return "churnlab pipeline --use-fixtures"
	case DataSourceWarehouse:
		return "churnlab pipeline --backend warehouse"
	default:
		return "churnlab pipeline"
	}
}

// computeDataVersion fingerprints the CSV outputs with SHA256, encoded
// base58 and shortened. File names are hashed with their content so a
// renamed attribute changes the version.
func computeDataVersion(files []outputFile) string {
	h := sha256.New()
	for _, f := range files {
		h.Write([]byte(f.name))
		h.Write([]byte{0})
		h.Write(f.data)
		h.Write([]byte{0})
	}
	return base58.Encode(h.Sum(nil)[:12])
}

// applySufficiency merges sufficiency results into the report section.
func applySufficiency(q *reporting.DataQualitySection, result *SufficiencyResult) {
	checks := make([]reporting.SufficiencyCheckRow, len(result.Checks))
	for i, c := range result.Checks {
		checks[i] = reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	q.SufficiencyChecks = checks
	q.IntegrityErrors = append(q.IntegrityErrors, result.Errors...)
	q.AllChecksPassed = result.AllPass
}

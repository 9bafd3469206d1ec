// Package orchestrator runs the churn feature pipeline end to end.
// It coordinates: load → monthly aggregation → seasonal deltas →
// feature derivation → churn aggregation.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/features"
	"churn-feature-lab/internal/ingestion"
	"churn-feature-lab/internal/metrics"
	"churn-feature-lab/internal/normalization"
	"churn-feature-lab/internal/observability"
	"churn-feature-lab/internal/storage"
	"churn-feature-lab/internal/storage/memory"
)

// TracerName names the tracer used for stage spans.
const TracerName = "churn-feature-lab/orchestrator"

// Run statuses recorded in metrics.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Orchestrator coordinates one pipeline execution.
type Orchestrator struct {
	// Source stores
	clientStore storage.ClientStore
	priceStore  storage.PriceStore

	// Derived stores; nil means fresh in-memory stores per run
	deltaStore    storage.SeasonalDeltaStore
	enhancedStore storage.EnhancedClientStore
	tableStore    storage.ChurnTableStore

	deriver       *features.Deriver
	attributes    []string
	sortByOutcome *int

	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required source stores
	ClientStore storage.ClientStore
	PriceStore  storage.PriceStore

	// Optional derived stores
	SeasonalDeltaStore  storage.SeasonalDeltaStore
	EnhancedClientStore storage.EnhancedClientStore
	ChurnTableStore     storage.ChurnTableStore

	// Feature derivation; nil uses features.NewDeriver()
	Deriver *features.Deriver

	// Churn attributes to tabulate; empty uses metrics.DefaultAttributes
	Attributes    []string
	SortByOutcome *int

	Logger  *slog.Logger
	Metrics *observability.Metrics
	Clock   func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	deriver := opts.Deriver
	if deriver == nil {
		deriver = features.NewDeriver().WithLogger(logger)
	}
	attributes := opts.Attributes
	if len(attributes) == 0 {
		attributes = metrics.DefaultAttributes
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Orchestrator{
		clientStore:   opts.ClientStore,
		priceStore:    opts.PriceStore,
		deltaStore:    opts.SeasonalDeltaStore,
		enhancedStore: opts.EnhancedClientStore,
		tableStore:    opts.ChurnTableStore,
		deriver:       deriver,
		attributes:    attributes,
		sortByOutcome: opts.SortByOutcome,
		logger:        logger.With("component", "orchestrator"),
		metrics:       opts.Metrics,
		tracer:        otel.Tracer(TracerName),
		now:           clock,
	}
}

// Deriver returns the feature deriver used in stage 4.
func (o *Orchestrator) Deriver() *features.Deriver {
	return o.deriver
}

// RunResult contains results from one pipeline execution.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	ClientsLoaded     int
	PricesLoaded      int
	MonthlyAggregates int
	DeltasComputed    int

	Enhanced []*domain.EnhancedClientRecord
	Tables   []*domain.ChurnAggregateTable
	Warnings []domain.DataQualityWarning

	// Notes lists non-fatal conditions (skipped tables) for the report.
	Notes []string

	// Stores holding this run's derived data.
	EnhancedStore storage.EnhancedClientStore
	TableStore    storage.ChurnTableStore
}

// Run executes the full pipeline.
// Stages:
//  1. Load clients and prices (in parallel)
//  2. Aggregate prices per (client, month)
//  3. Compute seasonal deltas -> delta store
//  4. Derive enhanced client features from stored deltas -> enhanced store
//  5. Compute churn tables -> table store
//
// A schema or store error in any stage stops the run; no partial result is returned.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: o.now().UTC(),
	}

	ctx, span := o.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", result.RunID)),
	)
	defer span.End()

	logger := o.logger.With("run_id", result.RunID)
	logger.Info("pipeline started")

	if err := o.run(ctx, logger, result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.RecordPipelineRun(StatusFailed, o.now())
		logger.Error("pipeline failed", "error", err)
		return nil, err
	}

	result.FinishedAt = o.now().UTC()
	o.metrics.RecordPipelineRun(StatusSuccess, result.FinishedAt)
	o.metrics.RecordWarnings(result.Warnings)
	logger.Info("pipeline completed",
		"clients", result.ClientsLoaded,
		"prices", result.PricesLoaded,
		"deltas", result.DeltasComputed,
		"tables", len(result.Tables),
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, result *RunResult) error {
	deltaStore, enhancedStore, tableStore := o.derivedStores()
	result.EnhancedStore = enhancedStore
	result.TableStore = tableStore

	// Stage 1: load
	var clients []*domain.ClientRecord
	var prices []*domain.PriceRecord
	err := o.stage(ctx, logger, 1, "load", func(ctx context.Context) error {
		var err error
		clients, prices, err = o.load(ctx)
		return err
	})
	if err != nil {
		return err
	}
	result.ClientsLoaded = len(clients)
	result.PricesLoaded = len(prices)

	// Stage 2: monthly aggregation
	var aggs []*domain.MonthlyPriceAggregate
	err = o.stage(ctx, logger, 2, "monthly aggregation", func(ctx context.Context) error {
		aggs = normalization.AggregateMonthlyPrices(prices)
		return ctx.Err()
	})
	if err != nil {
		return err
	}
	result.MonthlyAggregates = len(aggs)

	// Stage 3: seasonal deltas
	err = o.stage(ctx, logger, 3, "seasonal deltas", func(ctx context.Context) error {
		deltas := normalization.ComputeSeasonalDeltas(aggs)
		result.DeltasComputed = len(deltas)
		return deltaStore.InsertBulk(ctx, deltas)
	})
	if err != nil {
		return err
	}

	// Stage 4: feature derivation over the stored deltas
	err = o.stage(ctx, logger, 4, "feature derivation", func(ctx context.Context) error {
		deltas, err := deltaStore.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("read seasonal deltas: %w", err)
		}
		derived, err := o.deriver.Derive(clients, deltas)
		if err != nil {
			return err
		}
		result.Enhanced = derived.Records
		result.Warnings = derived.Warnings
		return enhancedStore.InsertBulk(ctx, derived.Records)
	})
	if err != nil {
		return err
	}

	// Stage 5: churn aggregation
	err = o.stage(ctx, logger, 5, "churn aggregation", func(ctx context.Context) error {
		aggregator := metrics.NewAggregator(enhancedStore, tableStore)
		tables, err := aggregator.ComputeAll(ctx, o.attributes, metrics.TableOptions{SortByOutcome: o.sortByOutcome})
		if err != nil {
			return err
		}
		result.Tables = tables
		result.Notes = append(result.Notes, aggregator.SkippedMessages()...)
		if o.metrics != nil {
			o.metrics.ChurnTablesComputed.Add(float64(len(tables)))
		}
		return nil
	})
	return err
}

// load reads clients and prices concurrently. The reads are independent,
// so the result equals a sequential load. Stores must return rows in key
// order; anything else fails with ingestion.ErrInvalidOrdering.
func (o *Orchestrator) load(ctx context.Context) ([]*domain.ClientRecord, []*domain.PriceRecord, error) {
	var clients []*domain.ClientRecord
	var prices []*domain.PriceRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = o.clientStore.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("load clients: %w", err)
		}
		if err := ingestion.ValidateClientOrdering(clients); err != nil {
			return fmt.Errorf("load clients: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prices, err = o.priceStore.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("load prices: %w", err)
		}
		if err := ingestion.ValidatePriceOrdering(prices); err != nil {
			return fmt.Errorf("load prices: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	o.metrics.RecordRowsLoaded("clients", len(clients))
	o.metrics.RecordRowsLoaded("prices", len(prices))
	return clients, prices, nil
}

// stage runs fn inside a span, logs and times it, and wraps its error
// with the stage number and name.
func (o *Orchestrator) stage(ctx context.Context, logger *slog.Logger, n int, name string, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "pipeline.stage",
		trace.WithAttributes(
			attribute.Int("stage.number", n),
			attribute.String("stage.name", name),
		),
	)
	defer span.End()

	logger.Info("stage started", "stage", n, "name", name)
	start := time.Now()

	err := fn(ctx)
	elapsed := time.Since(start)
	o.metrics.RecordStage(name, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("stage %d (%s): %w", n, name, err)
	}

	logger.Info("stage completed", "stage", n, "name", name, "duration", elapsed)
	return nil
}

func (o *Orchestrator) derivedStores() (storage.SeasonalDeltaStore, storage.EnhancedClientStore, storage.ChurnTableStore) {
	deltaStore := o.deltaStore
	if deltaStore == nil {
		deltaStore = memory.NewSeasonalDeltaStore()
	}
	enhancedStore := o.enhancedStore
	if enhancedStore == nil {
		enhancedStore = memory.NewEnhancedClientStore()
	}
	tableStore := o.tableStore
	if tableStore == nil {
		tableStore = memory.NewChurnTableStore()
	}
	return deltaStore, enhancedStore, tableStore
}

package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// Aggregator computes churn tables from the enhanced client store.
type Aggregator struct {
	enhancedStore storage.EnhancedClientStore
	tableStore    storage.ChurnTableStore

	// Skipped tracks attributes that produced no table (for data quality reporting).
	// Key: attribute, Value: reason.
	Skipped map[string]string
}

// NewAggregator creates a new churn aggregator.
func NewAggregator(enhancedStore storage.EnhancedClientStore, tableStore storage.ChurnTableStore) *Aggregator {
	return &Aggregator{
		enhancedStore: enhancedStore,
		tableStore:    tableStore,
		Skipped:       make(map[string]string),
	}
}

// ComputeTable computes the table of one attribute from all stored records.
func (a *Aggregator) ComputeTable(ctx context.Context, attribute string, opts TableOptions) (*domain.ChurnAggregateTable, error) {
	records, err := a.enhancedStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	obs, err := Observations(attribute, records)
	if err != nil {
		return nil, err
	}

	return ComputeChurnTable(attribute, obs, opts)
}

// ComputeAndStore computes and upserts the table of one attribute.
func (a *Aggregator) ComputeAndStore(ctx context.Context, attribute string, opts TableOptions) (*domain.ChurnAggregateTable, error) {
	table, err := a.ComputeTable(ctx, attribute, opts)
	if err != nil {
		return nil, err
	}

	if err := a.tableStore.Upsert(ctx, table); err != nil {
		return nil, fmt.Errorf("store churn table %s: %w", attribute, err)
	}

	return table, nil
}

// ComputeAll computes and stores a table per attribute.
// An empty enhanced table is recorded in Skipped rather than failing the batch;
// any other error stops it.
func (a *Aggregator) ComputeAll(ctx context.Context, attributes []string, opts TableOptions) ([]*domain.ChurnAggregateTable, error) {
	tables := make([]*domain.ChurnAggregateTable, 0, len(attributes))
	for _, attribute := range attributes {
		table, err := a.ComputeAndStore(ctx, attribute, opts)
		if err != nil {
			if errors.Is(err, ErrNoObservations) {
				a.Skipped[attribute] = "no client records"
				continue
			}
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// SkippedMessages returns one message per skipped attribute, sorted for
// deterministic output.
func (a *Aggregator) SkippedMessages() []string {
	if len(a.Skipped) == 0 {
		return nil
	}

	keys := make([]string, 0, len(a.Skipped))
	for k := range a.Skipped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, len(keys))
	for i, attribute := range keys {
		msgs[i] = fmt.Sprintf("churn table %s skipped: %s", attribute, a.Skipped[attribute])
	}
	return msgs
}

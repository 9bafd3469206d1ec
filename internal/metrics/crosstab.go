// Package metrics computes normalized churn cross-tabulations of
// categorical client attributes.
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"churn-feature-lab/internal/domain"
)

// Aggregation errors.
var (
	// ErrNoObservations is returned when there is nothing to tabulate.
	ErrNoObservations = errors.New("no observations to aggregate")

	// ErrUnknownAttribute is returned for attributes without an extractor.
	ErrUnknownAttribute = errors.New("unknown categorical attribute")

	// ErrUnknownOutcome is returned when sorting by an outcome that was never observed.
	ErrUnknownOutcome = errors.New("unknown outcome")
)

// Observation is one (category, outcome) pair.
type Observation struct {
	Category string
	Outcome  int
}

// TableOptions controls row ordering.
type TableOptions struct {
	// SortByOutcome orders rows by that outcome's percentage, descending,
	// ties broken by category. Nil orders rows by category ascending.
	SortByOutcome *int
}

// cellKey is one (category, outcome) cell.
type cellKey struct {
	category string
	outcome  int
}

// ComputeChurnTable builds the normalized cross-tabulation of obs.
//
// Counts per (category, outcome); the outcome columns are the union of
// outcomes seen, ascending; missing cells are zero-filled; each row's
// percentages are count / row total * 100.
func ComputeChurnTable(attribute string, obs []Observation, opts TableOptions) (*domain.ChurnAggregateTable, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("%s: %w", attribute, ErrNoObservations)
	}

	counts := make(map[cellKey]int)
	categorySet := make(map[string]struct{})
	outcomeSet := make(map[int]struct{})

	for _, o := range obs {
		counts[cellKey{o.Category, o.Outcome}]++
		categorySet[o.Category] = struct{}{}
		outcomeSet[o.Outcome] = struct{}{}
	}

	outcomes := make([]int, 0, len(outcomeSet))
	for o := range outcomeSet {
		outcomes = append(outcomes, o)
	}
	sort.Ints(outcomes)

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	table := &domain.ChurnAggregateTable{
		Attribute: attribute,
		Outcomes:  outcomes,
		Rows:      make([]domain.ChurnAggregateRow, 0, len(categories)),
	}

	for _, category := range categories {
		row := domain.ChurnAggregateRow{
			Category:    category,
			Counts:      make([]int, len(outcomes)),
			Percentages: make([]float64, len(outcomes)),
		}
		for i, outcome := range outcomes {
			row.Counts[i] = counts[cellKey{category, outcome}]
			row.Total += row.Counts[i]
		}
		// Every listed category was observed at least once, so Total > 0.
		for i, n := range row.Counts {
			row.Percentages[i] = float64(n) / float64(row.Total) * 100
		}
		table.Rows = append(table.Rows, row)
	}

	if opts.SortByOutcome != nil {
		if err := SortRows(table, *opts.SortByOutcome); err != nil {
			return nil, err
		}
	}

	return table, nil
}

// SortRows reorders rows by the given outcome's percentage, descending,
// ties broken by category ascending.
func SortRows(table *domain.ChurnAggregateTable, outcome int) error {
	idx := table.OutcomeIndex(outcome)
	if idx < 0 {
		return fmt.Errorf("%s: outcome %d: %w", table.Attribute, outcome, ErrUnknownOutcome)
	}

	sort.SliceStable(table.Rows, func(i, j int) bool {
		a, b := table.Rows[i], table.Rows[j]
		if a.Percentages[idx] != b.Percentages[idx] {
			return a.Percentages[idx] > b.Percentages[idx]
		}
		return a.Category < b.Category
	})

	sorted := outcome
	table.SortedBy = &sorted
	return nil
}

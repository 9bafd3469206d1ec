package domain

// ChurnAggregateTable is a normalized cross-tabulation of one categorical
// attribute against the churn outcome.
// Each row's Percentages sum to 100.
type ChurnAggregateTable struct {
	Attribute string              // categorical column the rows are keyed by
	Outcomes  []int               // outcome values, one per column, ascending
	Rows      []ChurnAggregateRow // one per distinct category value
	SortedBy  *int                // outcome column rows are sorted by (descending), NULL if by category
}

// ChurnAggregateRow is one category value of a ChurnAggregateTable.
// Counts and Percentages are aligned with the table's Outcomes.
type ChurnAggregateRow struct {
	Category    string
	Counts      []int
	Percentages []float64
	Total       int
}

// OutcomeIndex returns the column index of an outcome value, or -1.
func (t *ChurnAggregateTable) OutcomeIndex(outcome int) int {
	for i, o := range t.Outcomes {
		if o == outcome {
			return i
		}
	}
	return -1
}

// Row returns the row for a category value.
func (t *ChurnAggregateTable) Row(category string) (*ChurnAggregateRow, bool) {
	for i := range t.Rows {
		if t.Rows[i].Category == category {
			return &t.Rows[i], true
		}
	}
	return nil, false
}

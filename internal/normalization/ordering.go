package normalization

import (
	"sort"

	"churn-feature-lab/internal/domain"
)

// SortMonthlyAggregates orders aggregates by (client_id ASC, month ASC).
func SortMonthlyAggregates(aggs []*domain.MonthlyPriceAggregate) {
	sort.SliceStable(aggs, func(i, j int) bool {
		return compareMonthlyAggregates(aggs[i], aggs[j]) < 0
	})
}

// SortPriceRecords orders price records by (client_id ASC, price_date ASC).
// Records sharing both keys keep their relative order.
func SortPriceRecords(records []*domain.PriceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.ClientID != b.ClientID {
			return a.ClientID < b.ClientID
		}
		return a.PriceDate.Before(b.PriceDate)
	})
}

// compareMonthlyAggregates returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareMonthlyAggregates(a, b *domain.MonthlyPriceAggregate) int {
	if a.ClientID != b.ClientID {
		if a.ClientID < b.ClientID {
			return -1
		}
		return 1
	}
	if !a.Month.Equal(b.Month) {
		if a.Month.Before(b.Month) {
			return -1
		}
		return 1
	}
	return 0
}

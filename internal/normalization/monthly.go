package normalization

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"churn-feature-lab/internal/domain"
)

// monthKey identifies one (client, month) group.
type monthKey struct {
	clientID string
	month    int64 // unix seconds of the price date
}

// AggregateMonthlyPrices collapses price records into one aggregate per
// (client, price date). Dates are grouped exactly as given, never re-bucketed.
//
// Aggregation per group:
//   - MeanOffPeakVar = AVG(price_off_peak_var)
//   - MeanOffPeakFix = AVG(price_off_peak_fix)
//   - Observations = COUNT(*)
//
// Output is ordered by (client_id ASC, month ASC).
func AggregateMonthlyPrices(records []*domain.PriceRecord) []*domain.MonthlyPriceAggregate {
	if len(records) == 0 {
		return nil
	}

	type bucket struct {
		month  time.Time
		energy []float64
		power  []float64
	}

	buckets := make(map[monthKey]*bucket)
	var order []monthKey

	for _, r := range records {
		key := monthKey{clientID: r.ClientID, month: r.PriceDate.Unix()}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{month: r.PriceDate}
			buckets[key] = b
			order = append(order, key)
		}
		b.energy = append(b.energy, r.PriceOffPeakVar)
		b.power = append(b.power, r.PriceOffPeakFix)
	}

	result := make([]*domain.MonthlyPriceAggregate, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		result = append(result, &domain.MonthlyPriceAggregate{
			ClientID:       key.clientID,
			Month:          b.month,
			MeanOffPeakVar: stat.Mean(b.energy, nil),
			MeanOffPeakFix: stat.Mean(b.power, nil),
			Observations:   len(b.energy),
		})
	}

	SortMonthlyAggregates(result)
	return result
}

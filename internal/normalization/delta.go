package normalization

import (
	"churn-feature-lab/internal/domain"
)

// ComputeSeasonalDeltas computes, per client, the change between the
// earliest and latest monthly aggregate.
// Inputs are copied and sorted by (client_id, month) before first/last
// selection, so input order does not matter.
//
// Formulas:
//   - energy_delta = last.mean_off_peak_var - first.mean_off_peak_var
//   - power_delta = last.mean_off_peak_fix - first.mean_off_peak_fix
//   - a single aggregate yields 0 for both
//
// Clients without aggregates do not appear in the output.
func ComputeSeasonalDeltas(aggs []*domain.MonthlyPriceAggregate) []*domain.SeasonalDelta {
	if len(aggs) == 0 {
		return nil
	}

	sorted := make([]*domain.MonthlyPriceAggregate, len(aggs))
	copy(sorted, aggs)
	SortMonthlyAggregates(sorted)

	var result []*domain.SeasonalDelta
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].ClientID == sorted[start].ClientID {
			continue
		}
		first, last := sorted[start], sorted[i-1]
		result = append(result, &domain.SeasonalDelta{
			ClientID:    first.ClientID,
			EnergyDelta: last.MeanOffPeakVar - first.MeanOffPeakVar,
			PowerDelta:  last.MeanOffPeakFix - first.MeanOffPeakFix,
			Months:      i - start,
		})
		start = i
	}

	return result
}

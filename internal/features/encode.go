// Package features derives per-client model features from decoded client
// records and seasonal price deltas.
package features

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"churn-feature-lab/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// EncodeFlag maps "t" to FlagTrue and "f" to FlagFalse.
// Any other value, blank included, is FlagUnknown.
func EncodeFlag(v string) domain.BinaryFlag {
	switch v {
	case "t":
		return domain.FlagTrue
	case "f":
		return domain.FlagFalse
	default:
		return domain.FlagUnknown
	}
}

// DecomposeDate splits a calendar value into year, month and day.
func DecomposeDate(t time.Time) domain.CalendarParts {
	y, m, d := t.Date()
	return domain.CalendarParts{Year: y, Month: int(m), Day: d}
}

// ContractDuration returns end - activ in whole days.
// A negative result is returned unchanged. Works on Unix seconds, so any
// pair of four-digit-year dates is exact.
func ContractDuration(activ, end time.Time) int {
	a := time.Date(activ.Year(), activ.Month(), activ.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int((e.Unix() - a.Unix()) / secondsPerDay)
}

// ConsumptionRatio is lastMonth / (twelveMonth + 1).
func ConsumptionRatio(lastMonth, twelveMonth float64) float64 {
	return lastMonth / (twelveMonth + 1)
}

// PriceVolatility is the sample standard deviation (N-1) of the non-nil values.
// Returns nil when fewer than two values are present.
func PriceVolatility(values ...*float64) *float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			present = append(present, *v)
		}
	}
	if len(present) < 2 {
		return nil
	}
	sd := stat.StdDev(present, nil)
	return &sd
}

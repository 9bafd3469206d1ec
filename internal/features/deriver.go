package features

import (
	"fmt"
	"log/slog"
	"strconv"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/normalization"
)

// Default derivation columns.
var (
	DefaultCalendarColumns = domain.ClientCalendarColumns
	DefaultFlagColumns     = []string{"has_gas"}
)

// Result is the output of one derivation pass.
type Result struct {
	Records  []*domain.EnhancedClientRecord // one per input client, input order
	Warnings []domain.DataQualityWarning
}

// Deriver builds enhanced client records.
type Deriver struct {
	calendarColumns []string
	flagColumns     []string
	logger          *slog.Logger
}

// NewDeriver creates a deriver with the default calendar and flag columns.
func NewDeriver() *Deriver {
	return &Deriver{
		calendarColumns: DefaultCalendarColumns,
		flagColumns:     DefaultFlagColumns,
		logger:          slog.Default(),
	}
}

// WithCalendarColumns sets the calendar columns to decompose.
func (d *Deriver) WithCalendarColumns(columns []string) *Deriver {
	d.calendarColumns = append([]string(nil), columns...)
	return d
}

// WithFlagColumns sets the two-valued flag columns to encode.
func (d *Deriver) WithFlagColumns(columns []string) *Deriver {
	d.flagColumns = append([]string(nil), columns...)
	return d
}

// WithLogger sets the logger used for data quality warnings.
func (d *Deriver) WithLogger(logger *slog.Logger) *Deriver {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// CalendarColumns returns the configured calendar columns.
func (d *Deriver) CalendarColumns() []string { return d.calendarColumns }

// FlagColumns returns the configured flag columns.
func (d *Deriver) FlagColumns() []string { return d.flagColumns }

// Derive extends every client with calendar parts, contract duration,
// consumption ratio, price volatility, encoded flags and seasonal deltas.
// Clients are never dropped; suspicious values become warnings.
func (d *Deriver) Derive(clients []*domain.ClientRecord, deltas []*domain.SeasonalDelta) (*Result, error) {
	if err := d.checkColumns(); err != nil {
		return nil, err
	}

	byClient := make(map[string]*domain.SeasonalDelta, len(deltas))
	for _, delta := range deltas {
		byClient[delta.ClientID] = delta
	}

	result := &Result{Records: make([]*domain.EnhancedClientRecord, 0, len(clients))}

	for _, c := range clients {
		rec := &domain.EnhancedClientRecord{
			ClientRecord: *c,
			Calendar:     make(map[string]domain.CalendarParts, len(d.calendarColumns)),
			Flags:        make(map[string]domain.BinaryFlag, len(d.flagColumns)),
		}

		for _, column := range d.calendarColumns {
			date, _ := c.Date(column)
			rec.Calendar[column] = DecomposeDate(date)
		}

		rec.ContractDurationDays = ContractDuration(c.DateActiv, c.DateEnd)
		if rec.ContractDurationDays < 0 {
			result.warn(d.logger, domain.DataQualityWarning{
				Kind:     domain.WarningNegativeContractDuration,
				ClientID: c.ID,
				Column:   "contract_duration",
				Value:    strconv.Itoa(rec.ContractDurationDays),
				Message:  "date_end precedes date_activ",
			})
		}

		rec.ConsumptionRatio = ConsumptionRatio(c.ConsLastMonth, c.Cons12m)
		rec.PriceVolatility = PriceVolatility(
			c.VarSixMonthPriceOffPeak,
			c.VarSixMonthPricePeak,
			c.VarSixMonthPriceMidPeak,
		)

		for _, column := range d.flagColumns {
			raw, _ := c.Flag(column)
			flag := EncodeFlag(raw)
			rec.Flags[column] = flag
			if flag == domain.FlagUnknown {
				result.warn(d.logger, domain.DataQualityWarning{
					Kind:     domain.WarningUnknownFlagValue,
					ClientID: c.ID,
					Column:   column,
					Value:    raw,
					Message:  fmt.Sprintf("expected \"t\" or \"f\", encoded as %d", domain.FlagUnknown),
				})
			}
		}

		if delta, ok := byClient[c.ID]; ok {
			energy, power := delta.EnergyDelta, delta.PowerDelta
			rec.EnergyDelta = &energy
			rec.PowerDelta = &power
		} else {
			result.warn(d.logger, domain.DataQualityWarning{
				Kind:     domain.WarningNoPriceHistory,
				ClientID: c.ID,
				Message:  "no price records; seasonal deltas left empty",
			})
		}

		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func (r *Result) warn(logger *slog.Logger, w domain.DataQualityWarning) {
	r.Warnings = append(r.Warnings, w)
	logger.Warn("data quality warning",
		"kind", string(w.Kind),
		"client_id", w.ClientID,
		"column", w.Column,
		"value", w.Value,
	)
}

// checkColumns rejects calendar or flag columns the client record does not carry.
func (d *Deriver) checkColumns() error {
	var probe domain.ClientRecord
	for _, column := range d.calendarColumns {
		if _, ok := probe.Date(column); !ok {
			return &normalization.SchemaError{Column: column, Reason: "not a calendar column"}
		}
	}
	for _, column := range d.flagColumns {
		if _, ok := probe.Flag(column); !ok {
			return &normalization.SchemaError{Column: column, Reason: "not a flag column"}
		}
	}
	return nil
}

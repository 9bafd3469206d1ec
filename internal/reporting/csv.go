package reporting

import (
	"bytes"
	"strconv"
	"time"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/normalization"
	"churn-feature-lab/internal/table"
)

// DateLayout is the calendar format written to CSV outputs.
const DateLayout = "2006-01-02"

// Derived feature columns of the enhanced client table.
const (
	ColumnContractDuration = "contract_duration"
	ColumnConsumptionRatio = "consumption_ratio"
	ColumnPriceVolatility  = "price_volatility"
	ColumnEnergyDelta      = "offpeak_diff_dec_january_energy"
	ColumnPowerDelta       = "offpeak_diff_dec_january_power"
)

// ColumnClientCount holds the number of clients behind a churn table row.
// It is not a percentage.
const ColumnClientCount = "n_clients"

// InputColumns returns the client columns of the enhanced table: the source
// headers of the records, first-seen order, or normalization.ClientColumns
// when no record was decoded from a table.
func InputColumns(records []*domain.EnhancedClientRecord) []string {
	var cols []string
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, c := range r.Columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return normalization.ClientColumns
	}
	return cols
}

// EnhancedColumns returns the enhanced client table header: the input
// columns followed by the derived columns.
func EnhancedColumns(inputColumns, calendarColumns, flagColumns []string) []string {
	cols := make([]string, 0, len(inputColumns)+3*len(calendarColumns)+len(flagColumns)+5)
	cols = append(cols, inputColumns...)
	for _, c := range calendarColumns {
		cols = append(cols, c+"_year", c+"_month", c+"_day")
	}
	cols = append(cols, ColumnContractDuration, ColumnConsumptionRatio, ColumnPriceVolatility)
	for _, f := range flagColumns {
		cols = append(cols, f+"_flag")
	}
	return append(cols, ColumnEnergyDelta, ColumnPowerDelta)
}

// EnhancedClientsTable lays out enhanced records one row per client, in
// input order. Every input column is kept. NULL values and columns a record
// did not carry are written as blank cells.
func EnhancedClientsTable(records []*domain.EnhancedClientRecord, calendarColumns, flagColumns []string) *table.Table {
	inputColumns := InputColumns(records)
	columns := EnhancedColumns(inputColumns, calendarColumns, flagColumns)
	rows := make([][]string, 0, len(records))

	for _, r := range records {
		row := make([]string, 0, len(columns))
		for _, c := range inputColumns {
			row = append(row, clientCell(&r.ClientRecord, c))
		}

		for _, c := range calendarColumns {
			parts, ok := r.Calendar[c]
			if !ok {
				row = append(row, "", "", "")
				continue
			}
			row = append(row, strconv.Itoa(parts.Year), strconv.Itoa(parts.Month), strconv.Itoa(parts.Day))
		}

		row = append(row,
			strconv.Itoa(r.ContractDurationDays),
			formatFloat(r.ConsumptionRatio),
			formatNullable(r.PriceVolatility),
		)

		for _, f := range flagColumns {
			flag, ok := r.Flags[f]
			if !ok {
				flag = domain.FlagUnknown
			}
			row = append(row, strconv.Itoa(int(flag)))
		}

		row = append(row, formatNullable(r.EnergyDelta), formatNullable(r.PowerDelta))
		rows = append(rows, row)
	}

	return &table.Table{Columns: columns, Rows: rows}
}

// clientCell formats one client column. Typed fields are written in
// canonical form; other columns come from Extra as read.
func clientCell(c *domain.ClientRecord, column string) string {
	switch column {
	case normalization.ColumnID:
		return c.ID
	case normalization.ColumnChannelSales:
		return c.ChannelSales
	case normalization.ColumnOriginUp:
		return c.OriginUp
	case normalization.ColumnHasGas:
		return c.HasGas
	case normalization.ColumnCons12m:
		return formatFloat(c.Cons12m)
	case normalization.ColumnConsGas12m:
		return formatFloat(c.ConsGas12m)
	case normalization.ColumnConsLastMonth:
		return formatFloat(c.ConsLastMonth)
	case normalization.ColumnForecastCons12m:
		return formatFloat(c.ForecastCons12m)
	case normalization.ColumnMarginGrossPowEle:
		return formatFloat(c.MarginGrossPowEle)
	case normalization.ColumnMarginNetPowEle:
		return formatFloat(c.MarginNetPowEle)
	case normalization.ColumnNetMargin:
		return formatFloat(c.NetMargin)
	case normalization.ColumnPowMax:
		return formatFloat(c.PowMax)
	case normalization.ColumnNbProdAct:
		return strconv.Itoa(c.NbProdAct)
	case normalization.ColumnNumYearsAntig:
		return strconv.Itoa(c.NumYearsAntig)
	case normalization.ColumnVar6mOffPeak:
		return formatNullable(c.VarSixMonthPriceOffPeak)
	case normalization.ColumnVar6mPeak:
		return formatNullable(c.VarSixMonthPricePeak)
	case normalization.ColumnVar6mMidPeak:
		return formatNullable(c.VarSixMonthPriceMidPeak)
	case normalization.ColumnChurn:
		return strconv.Itoa(c.Churn)
	}
	if d, ok := c.Date(column); ok {
		return formatDate(d)
	}
	return c.Extra[column]
}

// ChurnTable lays out a churn table as <attribute>,<outcome...>,n_clients.
// The outcome columns are percentages summing to 100 per row.
func ChurnTable(t *domain.ChurnAggregateTable) *table.Table {
	columns := make([]string, 0, len(t.Outcomes)+2)
	columns = append(columns, t.Attribute)
	for _, o := range t.Outcomes {
		columns = append(columns, strconv.Itoa(o))
	}
	columns = append(columns, ColumnClientCount)

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]string, 0, len(columns))
		row = append(row, r.Category)
		for _, p := range r.Percentages {
			row = append(row, formatFloat(p))
		}
		row = append(row, strconv.Itoa(r.Total))
		rows = append(rows, row)
	}

	return &table.Table{Columns: columns, Rows: rows}
}

// RenderCSV renders a table as CSV bytes.
func RenderCSV(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ChurnTableFileName is the output file name for an attribute's table.
func ChurnTableFileName(attribute string) string {
	return "churn_by_" + attribute + ".csv"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

package normalization

import (
	"math"
	"strconv"
	"strings"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/table"
)

// Client table columns.
const (
	ColumnID                = "id"
	ColumnChannelSales      = "channel_sales"
	ColumnOriginUp          = "origin_up"
	ColumnHasGas            = "has_gas"
	ColumnCons12m           = "cons_12m"
	ColumnConsGas12m        = "cons_gas_12m"
	ColumnConsLastMonth     = "cons_last_month"
	ColumnForecastCons12m   = "forecast_cons_12m"
	ColumnMarginGrossPowEle = "margin_gross_pow_ele"
	ColumnMarginNetPowEle   = "margin_net_pow_ele"
	ColumnNetMargin         = "net_margin"
	ColumnPowMax            = "pow_max"
	ColumnNbProdAct         = "nb_prod_act"
	ColumnNumYearsAntig     = "num_years_antig"
	ColumnVar6mOffPeak      = "var_6m_price_off_peak"
	ColumnVar6mPeak         = "var_6m_price_peak"
	ColumnVar6mMidPeak      = "var_6m_price_mid_peak"
	ColumnChurn             = "churn"
)

// Price table columns.
const (
	ColumnPriceDate       = "price_date"
	ColumnPriceOffPeakVar = "price_off_peak_var"
	ColumnPricePeakVar    = "price_peak_var"
	ColumnPriceMidPeakVar = "price_mid_peak_var"
	ColumnPriceOffPeakFix = "price_off_peak_fix"
	ColumnPricePeakFix    = "price_peak_fix"
	ColumnPriceMidPeakFix = "price_mid_peak_fix"
)

// RequiredClientColumns must be present in every client table.
var RequiredClientColumns = []string{
	ColumnID,
	ColumnChannelSales,
	ColumnCons12m,
	ColumnConsLastMonth,
	domain.ColumnDateActiv,
	domain.ColumnDateEnd,
	domain.ColumnDateModifProd,
	domain.ColumnDateRenewal,
	ColumnHasGas,
	ColumnOriginUp,
	ColumnChurn,
}

// ClientColumns lists every client column decoded into a typed field, in
// the order the enhanced table writes them when the source header is unknown.
var ClientColumns = []string{
	ColumnID,
	ColumnChannelSales,
	ColumnCons12m,
	ColumnConsGas12m,
	ColumnConsLastMonth,
	domain.ColumnDateActiv,
	domain.ColumnDateEnd,
	domain.ColumnDateModifProd,
	domain.ColumnDateRenewal,
	ColumnForecastCons12m,
	ColumnHasGas,
	ColumnMarginGrossPowEle,
	ColumnMarginNetPowEle,
	ColumnNbProdAct,
	ColumnNetMargin,
	ColumnNumYearsAntig,
	ColumnOriginUp,
	ColumnPowMax,
	ColumnVar6mOffPeak,
	ColumnVar6mPeak,
	ColumnVar6mMidPeak,
	ColumnChurn,
}

// IsClientColumn reports whether a client column has a typed field.
func IsClientColumn(name string) bool {
	for _, c := range ClientColumns {
		if c == name {
			return true
		}
	}
	return false
}

// RequiredPriceColumns must be present in every price table.
var RequiredPriceColumns = []string{
	ColumnID,
	ColumnPriceDate,
	ColumnPriceOffPeakVar,
	ColumnPriceOffPeakFix,
}

// DecodeClients converts a raw client table into typed records.
//
// Required columns must be non-blank. Optional columns may be absent or
// blank (zero value, or NULL for the price variation columns); a non-blank
// optional cell must still parse. Columns without a typed field are kept
// verbatim in Extra, and the header in Columns. Cells are not trimmed, in line with
// ParseDateColumns, so " 5" is a schema error and "t " is kept as written.
// Churn must be 0 or 1 and IDs unique.
func DecodeClients(t *table.Table) ([]*domain.ClientRecord, error) {
	if err := RequireColumns(t, RequiredClientColumns...); err != nil {
		return nil, err
	}
	dated, err := ParseDateColumns(t, domain.ClientCalendarColumns)
	if err != nil {
		return nil, err
	}

	columns := append([]string(nil), t.Columns...)
	var extra []string
	for _, c := range columns {
		if !IsClientColumn(c) {
			extra = append(extra, c)
		}
	}

	seen := make(map[string]int, t.Len())
	clients := make([]*domain.ClientRecord, 0, t.Len())

	for i := range t.Rows {
		p := cellParser{t: t, row: i}

		c := &domain.ClientRecord{
			ID:           p.text(ColumnID, true),
			ChannelSales: p.text(ColumnChannelSales, false),
			OriginUp:     p.text(ColumnOriginUp, false),
			HasGas:       p.text(ColumnHasGas, false),

			Cons12m:           p.float(ColumnCons12m, true),
			ConsGas12m:        p.float(ColumnConsGas12m, false),
			ConsLastMonth:     p.float(ColumnConsLastMonth, true),
			ForecastCons12m:   p.float(ColumnForecastCons12m, false),
			MarginGrossPowEle: p.float(ColumnMarginGrossPowEle, false),
			MarginNetPowEle:   p.float(ColumnMarginNetPowEle, false),
			NetMargin:         p.float(ColumnNetMargin, false),
			PowMax:            p.float(ColumnPowMax, false),
			NbProdAct:         p.int(ColumnNbProdAct, false),
			NumYearsAntig:     p.int(ColumnNumYearsAntig, false),

			VarSixMonthPriceOffPeak: p.nullableFloat(ColumnVar6mOffPeak),
			VarSixMonthPricePeak:    p.nullableFloat(ColumnVar6mPeak),
			VarSixMonthPriceMidPeak: p.nullableFloat(ColumnVar6mMidPeak),

			Churn: p.int(ColumnChurn, true),

			Columns: columns,
		}
		if p.err != nil {
			return nil, p.err
		}
		if len(extra) > 0 {
			c.Extra = make(map[string]string, len(extra))
			for _, col := range extra {
				c.Extra[col] = t.Cell(i, col)
			}
		}

		c.DateActiv, _ = dated.Date(i, domain.ColumnDateActiv)
		c.DateEnd, _ = dated.Date(i, domain.ColumnDateEnd)
		c.DateModifProd, _ = dated.Date(i, domain.ColumnDateModifProd)
		c.DateRenewal, _ = dated.Date(i, domain.ColumnDateRenewal)

		if c.Churn != domain.OutcomeRetained && c.Churn != domain.OutcomeChurned {
			return nil, &SchemaError{
				Column: ColumnChurn,
				Row:    i + 1,
				Value:  t.Cell(i, ColumnChurn),
				Reason: "outcome label must be 0 or 1",
			}
		}
		if first, dup := seen[c.ID]; dup {
			return nil, &SchemaError{
				Column: ColumnID,
				Row:    i + 1,
				Value:  c.ID,
				Reason: "duplicate client identifier, first seen at row " + strconv.Itoa(first),
			}
		}
		seen[c.ID] = i + 1

		clients = append(clients, c)
	}

	return clients, nil
}

// DecodePrices converts a raw price table into typed records.
// The peak and mid-peak columns are optional.
func DecodePrices(t *table.Table) ([]*domain.PriceRecord, error) {
	if err := RequireColumns(t, RequiredPriceColumns...); err != nil {
		return nil, err
	}
	dated, err := ParseDateColumns(t, []string{ColumnPriceDate})
	if err != nil {
		return nil, err
	}

	prices := make([]*domain.PriceRecord, 0, t.Len())
	for i := range t.Rows {
		p := cellParser{t: t, row: i}

		r := &domain.PriceRecord{
			ClientID:        p.text(ColumnID, true),
			PriceOffPeakVar: p.float(ColumnPriceOffPeakVar, true),
			PricePeakVar:    p.float(ColumnPricePeakVar, false),
			PriceMidPeakVar: p.float(ColumnPriceMidPeakVar, false),
			PriceOffPeakFix: p.float(ColumnPriceOffPeakFix, true),
			PricePeakFix:    p.float(ColumnPricePeakFix, false),
			PriceMidPeakFix: p.float(ColumnPriceMidPeakFix, false),
		}
		if p.err != nil {
			return nil, p.err
		}
		r.PriceDate, _ = dated.Date(i, ColumnPriceDate)

		prices = append(prices, r)
	}

	return prices, nil
}

// cellParser reads typed cells from one row and keeps the first error.
type cellParser struct {
	t   *table.Table
	row int
	err error
}

func (p *cellParser) fail(column, value, reason string) {
	if p.err == nil {
		p.err = &SchemaError{Column: column, Row: p.row + 1, Value: value, Reason: reason}
	}
}

// raw returns the cell and whether it holds a value. Cells are used as
// written; a cell of only whitespace counts as blank.
func (p *cellParser) raw(column string, required bool) (string, bool) {
	if !p.t.HasColumn(column) {
		return "", false
	}
	v := p.t.Cell(p.row, column)
	if strings.TrimSpace(v) == "" {
		if required {
			p.fail(column, v, "required value is blank")
		}
		return "", false
	}
	return v, true
}

func (p *cellParser) text(column string, required bool) string {
	v, _ := p.raw(column, required)
	return v
}

func (p *cellParser) float(column string, required bool) float64 {
	v, ok := p.raw(column, required)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.fail(column, v, "expected a finite number")
		return 0
	}
	return f
}

func (p *cellParser) nullableFloat(column string) *float64 {
	v, ok := p.raw(column, false)
	if !ok || strings.EqualFold(v, "nan") {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) {
		p.fail(column, v, "expected a number")
		return nil
	}
	return &f
}

func (p *cellParser) int(column string, required bool) int {
	v, ok := p.raw(column, required)
	if !ok {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	// Integral floats such as "2.0" are written by some exporters.
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		p.fail(column, v, "expected an integer")
		return 0
	}
	return int(f)
}

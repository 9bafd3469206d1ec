package domain

import "time"

// Churn outcome labels.
const (
	OutcomeRetained = 0
	OutcomeChurned  = 1
)

// ClientRecord is one row of the client table.
// Identified by ID, which is unique across the table.
type ClientRecord struct {
	ID           string // hashed client identifier
	ChannelSales string // sales channel code
	OriginUp     string // code of the electricity campaign the client first subscribed to
	HasGas       string // raw "t"/"f" flag as found in the source

	Cons12m           float64 // electricity consumption over the past 12 months
	ConsGas12m        float64 // gas consumption over the past 12 months
	ConsLastMonth     float64 // electricity consumption of the last month
	ForecastCons12m   float64 // forecasted electricity consumption for the next 12 months
	MarginGrossPowEle float64 // gross margin on power subscription
	MarginNetPowEle   float64 // net margin on power subscription
	NetMargin         float64 // total net margin
	PowMax            float64 // subscribed power
	NbProdAct         int     // number of active products and services
	NumYearsAntig     int     // antiquity of the client in years

	DateActiv     time.Time // contract activation date
	DateEnd       time.Time // registered end of contract
	DateModifProd time.Time // date of last product modification
	DateRenewal   time.Time // date of next contract renewal

	// Price variation between the two halves of the year, in percent.
	// NULL when the source cell is blank.
	VarSixMonthPriceOffPeak *float64
	VarSixMonthPricePeak    *float64
	VarSixMonthPriceMidPeak *float64

	Churn int // OutcomeRetained or OutcomeChurned

	// Columns is the header of the table the record was decoded from, in
	// source order. Nil for records built in code.
	Columns []string
	// Extra holds the cells of source columns not modelled above, as written.
	Extra map[string]string
}

// Calendar column names of the client table.
const (
	ColumnDateActiv     = "date_activ"
	ColumnDateEnd       = "date_end"
	ColumnDateModifProd = "date_modif_prod"
	ColumnDateRenewal   = "date_renewal"
)

// ClientCalendarColumns lists the client calendar columns in table order.
var ClientCalendarColumns = []string{
	ColumnDateActiv,
	ColumnDateEnd,
	ColumnDateModifProd,
	ColumnDateRenewal,
}

// Date returns the calendar value stored under the given column name.
func (c *ClientRecord) Date(column string) (time.Time, bool) {
	switch column {
	case ColumnDateActiv:
		return c.DateActiv, true
	case ColumnDateEnd:
		return c.DateEnd, true
	case ColumnDateModifProd:
		return c.DateModifProd, true
	case ColumnDateRenewal:
		return c.DateRenewal, true
	default:
		return time.Time{}, false
	}
}

// Flag returns the raw two-valued flag stored under the given column name.
func (c *ClientRecord) Flag(column string) (string, bool) {
	switch column {
	case "has_gas":
		return c.HasGas, true
	default:
		return "", false
	}
}

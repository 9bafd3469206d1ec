package domain

import "time"

// PriceRecord is one price observation for a client.
// Several records may share (ClientID, PriceDate); they are averaged.
type PriceRecord struct {
	ClientID        string    // foreign key into the client table
	PriceDate       time.Time // observation period, one per month in practice
	PriceOffPeakVar float64   // off-peak energy price
	PricePeakVar    float64   // peak energy price
	PriceMidPeakVar float64   // mid-peak energy price
	PriceOffPeakFix float64   // off-peak power price
	PricePeakFix    float64   // peak power price
	PriceMidPeakFix float64   // mid-peak power price
}

// MonthlyPriceAggregate is the mean off-peak price pair for one (client, month).
type MonthlyPriceAggregate struct {
	ClientID       string
	Month          time.Time
	MeanOffPeakVar float64
	MeanOffPeakFix float64
	Observations   int // number of price records averaged
}

// SeasonalDelta is the difference between a client's last and first
// monthly price aggregate.
type SeasonalDelta struct {
	ClientID    string
	EnergyDelta float64 // last.MeanOffPeakVar - first.MeanOffPeakVar
	PowerDelta  float64 // last.MeanOffPeakFix - first.MeanOffPeakFix
	Months      int     // number of monthly aggregates seen
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// LoadFixtures populates stores with the built-in demonstration dataset.
func LoadFixtures(ctx context.Context, clientStore storage.ClientStore, priceStore storage.PriceStore) error {
	if err := clientStore.InsertBulk(ctx, FixtureClients()); err != nil {
		return fmt.Errorf("load fixture clients: %w", err)
	}
	if err := priceStore.InsertBulk(ctx, FixturePrices()); err != nil {
		return fmt.Errorf("load fixture prices: %w", err)
	}
	return nil
}

func fixtureDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixtureFloat(v float64) *float64 { return &v }

// FixtureClients returns the demonstration clients:
//   - A and B share channel X; A churns 0 and B churns 1.
//   - C has duplicate price rows in one month.
//   - D ends its contract before activation.
//   - E has an unknown has_gas value and no price history.
func FixtureClients() []*domain.ClientRecord {
	return []*domain.ClientRecord{
		{
			ID:                      "A",
			ChannelSales:            "X",
			OriginUp:                "O1",
			HasGas:                  "t",
			Cons12m:                 100,
			ConsGas12m:              20,
			ConsLastMonth:           5,
			ForecastCons12m:         110,
			MarginGrossPowEle:       25.4,
			MarginNetPowEle:         25.4,
			NetMargin:               120.5,
			PowMax:                  13.8,
			NbProdAct:               2,
			NumYearsAntig:           4,
			DateActiv:               fixtureDate(2015, 1, 1),
			DateEnd:                 fixtureDate(2016, 1, 1),
			DateModifProd:           fixtureDate(2015, 1, 1),
			DateRenewal:             fixtureDate(2015, 6, 1),
			VarSixMonthPriceOffPeak: fixtureFloat(0.02),
			VarSixMonthPricePeak:    fixtureFloat(0.04),
			VarSixMonthPriceMidPeak: fixtureFloat(0.06),
			Churn:                   domain.OutcomeRetained,
		},
		{
			ID:            "B",
			ChannelSales:  "X",
			OriginUp:      "O1",
			HasGas:        "f",
			Cons12m:       0,
			ConsLastMonth: 5,
			PowMax:        10.4,
			NbProdAct:     1,
			NumYearsAntig: 3,
			DateActiv:     fixtureDate(2014, 3, 15),
			DateEnd:       fixtureDate(2016, 3, 15),
			DateModifProd: fixtureDate(2014, 3, 15),
			DateRenewal:   fixtureDate(2015, 3, 16),
			Churn:         domain.OutcomeChurned,
		},
		{
			ID:            "C",
			ChannelSales:  "Y",
			OriginUp:      "O2",
			HasGas:        "t",
			Cons12m:       5400,
			ConsGas12m:    3100,
			ConsLastMonth: 410,
			PowMax:        15,
			NbProdAct:     3,
			NumYearsAntig: 6,
			DateActiv:     fixtureDate(2012, 8, 1),
			DateEnd:       fixtureDate(2016, 8, 1),
			DateModifProd: fixtureDate(2014, 8, 1),
			DateRenewal:   fixtureDate(2015, 8, 2),
			Churn:         domain.OutcomeRetained,
		},
		{
			ID:                      "D",
			ChannelSales:            "Y",
			OriginUp:                "O2",
			HasGas:                  "f",
			Cons12m:                 820,
			ConsLastMonth:           60,
			PowMax:                  12,
			NbProdAct:               1,
			NumYearsAntig:           1,
			DateActiv:               fixtureDate(2021, 6, 1),
			DateEnd:                 fixtureDate(2021, 1, 1),
			DateModifProd:           fixtureDate(2021, 6, 1),
			DateRenewal:             fixtureDate(2021, 12, 1),
			VarSixMonthPriceOffPeak: fixtureFloat(0.5),
			Churn:                   domain.OutcomeChurned,
		},
		{
			ID:            "E",
			ChannelSales:  "Z",
			OriginUp:      "O1",
			HasGas:        "",
			Cons12m:       1500,
			ConsLastMonth: 0,
			PowMax:        9,
			NbProdAct:     1,
			NumYearsAntig: 5,
			DateActiv:     fixtureDate(2011, 2, 1),
			DateEnd:       fixtureDate(2017, 2, 1),
			DateModifProd: fixtureDate(2011, 2, 1),
			DateRenewal:   fixtureDate(2016, 2, 2),
			Churn:         domain.OutcomeRetained,
		},
	}
}

// FixturePrices returns the demonstration price observations.
// A moves from 10/40 in January to 12/44 in December; B has one month only.
func FixturePrices() []*domain.PriceRecord {
	return []*domain.PriceRecord{
		{ClientID: "A", PriceDate: fixtureDate(2015, 1, 1), PriceOffPeakVar: 10, PriceOffPeakFix: 40},
		{ClientID: "A", PriceDate: fixtureDate(2015, 12, 1), PriceOffPeakVar: 12, PriceOffPeakFix: 44},
		{ClientID: "B", PriceDate: fixtureDate(2015, 1, 1), PriceOffPeakVar: 8, PriceOffPeakFix: 30},
		{ClientID: "C", PriceDate: fixtureDate(2015, 1, 1), PriceOffPeakVar: 0.15, PricePeakVar: 0.1, PriceOffPeakFix: 44.3},
		{ClientID: "C", PriceDate: fixtureDate(2015, 6, 1), PriceOffPeakVar: 0.16, PricePeakVar: 0.1, PriceOffPeakFix: 44.3},
		{ClientID: "C", PriceDate: fixtureDate(2015, 6, 1), PriceOffPeakVar: 0.18, PricePeakVar: 0.1, PriceOffPeakFix: 44.5},
		{ClientID: "C", PriceDate: fixtureDate(2015, 12, 1), PriceOffPeakVar: 0.13, PricePeakVar: 0.1, PriceOffPeakFix: 44.4},
		{ClientID: "D", PriceDate: fixtureDate(2015, 1, 1), PriceOffPeakVar: 0.2, PriceOffPeakFix: 40},
		{ClientID: "D", PriceDate: fixtureDate(2015, 12, 1), PriceOffPeakVar: 0.25, PriceOffPeakFix: 42},
	}
}

package memory

import "churn-feature-lab/internal/domain"

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneClient(c *domain.ClientRecord) *domain.ClientRecord {
	cp := *c
	cp.VarSixMonthPriceOffPeak = cloneFloat(c.VarSixMonthPriceOffPeak)
	cp.VarSixMonthPricePeak = cloneFloat(c.VarSixMonthPricePeak)
	cp.VarSixMonthPriceMidPeak = cloneFloat(c.VarSixMonthPriceMidPeak)
	if c.Columns != nil {
		cp.Columns = append([]string(nil), c.Columns...)
	}
	if c.Extra != nil {
		cp.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			cp.Extra[k] = v
		}
	}
	return &cp
}

func cloneEnhanced(e *domain.EnhancedClientRecord) *domain.EnhancedClientRecord {
	cp := *e
	cp.ClientRecord = *cloneClient(&e.ClientRecord)
	cp.PriceVolatility = cloneFloat(e.PriceVolatility)
	cp.EnergyDelta = cloneFloat(e.EnergyDelta)
	cp.PowerDelta = cloneFloat(e.PowerDelta)

	if e.Calendar != nil {
		cp.Calendar = make(map[string]domain.CalendarParts, len(e.Calendar))
		for k, v := range e.Calendar {
			cp.Calendar[k] = v
		}
	}
	if e.Flags != nil {
		cp.Flags = make(map[string]domain.BinaryFlag, len(e.Flags))
		for k, v := range e.Flags {
			cp.Flags[k] = v
		}
	}
	return &cp
}

func cloneChurnTable(t *domain.ChurnAggregateTable) *domain.ChurnAggregateTable {
	cp := *t
	cp.Outcomes = append([]int(nil), t.Outcomes...)
	if t.SortedBy != nil {
		o := *t.SortedBy
		cp.SortedBy = &o
	}
	cp.Rows = make([]domain.ChurnAggregateRow, len(t.Rows))
	for i, r := range t.Rows {
		cp.Rows[i] = domain.ChurnAggregateRow{
			Category:    r.Category,
			Counts:      append([]int(nil), r.Counts...),
			Percentages: append([]float64(nil), r.Percentages...),
			Total:       r.Total,
		}
	}
	return &cp
}

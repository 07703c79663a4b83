package cashflow

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fortneer/fluxo/internal/model"
)

// Indicators are the headline figures of the window.
type Indicators struct {
	TotalInflow     decimal.Decimal
	TotalOutflow    decimal.Decimal
	Net             decimal.Decimal
	AvgDailyInflow  decimal.Decimal
	AvgDailyOutflow decimal.Decimal
	InflowCount     int
	OutflowCount    int
	LargestInflow   *Movement
	LargestOutflow  *Movement
}

// Movement identifies a single record in the window.
type Movement struct {
	Account string
	Unit    string
	Date    time.Time
	Amount  decimal.Decimal
}

// UnitTotal is one unit's share of the window.
type UnitTotal struct {
	Unit    string
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
	Net     decimal.Decimal
}

func (r *Report) indicators(inflows, outflows []model.Transaction) Indicators {
	days := decimal.NewFromInt(int64(len(r.Days)))

	ind := Indicators{
		TotalInflow:  sum(inflows),
		TotalOutflow: sum(outflows),
		InflowCount:  len(inflows),
		OutflowCount: len(outflows),
	}
	ind.Net = ind.TotalInflow.Sub(ind.TotalOutflow)
	if days.IsPositive() {
		ind.AvgDailyInflow = ind.TotalInflow.Div(days)
		ind.AvgDailyOutflow = ind.TotalOutflow.Div(days)
	}
	ind.LargestInflow = largest(inflows, r.Regime)
	ind.LargestOutflow = largest(outflows, r.Regime)
	return ind
}

func sum(txns []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}

// largest returns the first record with the greatest amount, nil when empty.
func largest(txns []model.Transaction, regime model.Regime) *Movement {
	var best *model.Transaction
	for i := range txns {
		if best == nil || txns[i].Amount.GreaterThan(best.Amount) {
			best = &txns[i]
		}
	}
	if best == nil {
		return nil
	}
	d, _ := best.DateFor(regime)
	return &Movement{Account: best.Account, Unit: best.Unit, Date: Day(d), Amount: best.Amount}
}

func byUnit(inflows, outflows []model.Transaction) []UnitTotal {
	totals := make(map[string]*UnitTotal)
	get := func(unit string) *UnitTotal {
		if ut, ok := totals[unit]; ok {
			return ut
		}
		ut := &UnitTotal{Unit: unit}
		totals[unit] = ut
		return ut
	}
	for _, t := range inflows {
		ut := get(t.Unit)
		ut.Inflow = ut.Inflow.Add(t.Amount)
	}
	for _, t := range outflows {
		ut := get(t.Unit)
		ut.Outflow = ut.Outflow.Add(t.Amount)
	}

	out := make([]UnitTotal, 0, len(totals))
	for _, ut := range totals {
		ut.Net = ut.Inflow.Sub(ut.Outflow)
		out = append(out, *ut)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out
}

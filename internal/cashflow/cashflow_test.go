package cashflow

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortneer/fluxo/internal/balances"
	"github.com/fortneer/fluxo/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustRange(t *testing.T, start, end time.Time) DateRange {
	t.Helper()
	r, err := NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

func inflows(txns ...model.Transaction) model.RecordSet {
	return model.RecordSet{Source: "receber.xlsx", Role: model.RoleInflow, Columns: model.DateColumns{Cash: true, Accrual: true}, Records: txns}
}

func outflows(txns ...model.Transaction) model.RecordSet {
	return model.RecordSet{Source: "pagar.xlsx", Role: model.RoleOutflow, Columns: model.DateColumns{Cash: true, Accrual: true}, Records: txns}
}

func totals(cts []CategoryTotal) []string {
	var out []string
	for _, ct := range cts {
		out = append(out, ct.Account+"="+ct.Total.String())
	}
	return out
}

func book(entries ...balances.Entry) *balances.Book {
	return balances.NewBook(entries)
}

func TestBuild_EndToEnd(t *testing.T) {
	rec := inflows(model.Transaction{Unit: "A", Account: "Sales", Amount: dec("1000.00"), CashDate: date(2024, 1, 5)})
	pay := outflows(model.Transaction{Unit: "A", Account: "Rent", Amount: dec("400.00"), CashDate: date(2024, 1, 5)})

	r, err := Build([]model.RecordSet{rec}, []model.RecordSet{pay}, Params{
		Range:    mustRange(t, date(2024, 1, 1), date(2024, 1, 10)),
		Regime:   model.RegimeCash,
		Unit:     "A",
		Balances: book(balances.Entry{Unit: "A", Balance: dec("100.00")}),
	})
	require.NoError(t, err)
	require.Len(t, r.Days, 10)

	for _, day := range r.Days {
		if day.Date.Equal(date(2024, 1, 5)) {
			assert.True(t, day.Inflow.Equal(dec("1000")))
			assert.True(t, day.Outflow.Equal(dec("400")))
			assert.True(t, day.NetChange.Equal(dec("600")))
			assert.True(t, day.RunningBalance.Equal(dec("700")))
			continue
		}
		if day.Date.Before(date(2024, 1, 5)) {
			assert.True(t, day.RunningBalance.Equal(dec("100")), "day %s", day.Date)
		} else {
			assert.True(t, day.RunningBalance.Equal(dec("700")), "day %s", day.Date)
		}
		assert.True(t, day.NetChange.IsZero())
	}

	assert.Equal(t, []string{"Sales=1000"}, totals(r.InflowByAccount))
	assert.Equal(t, []string{"Rent=400"}, totals(r.OutflowByAccount))
	assert.True(t, r.OpeningBalance.Equal(dec("100")))
	assert.True(t, r.ClosingBalance().Equal(dec("700")))
	assert.Nil(t, r.UnitBreakdown)
}

func TestBuild_DenseAscending(t *testing.T) {
	ranges := []DateRange{
		mustRange(t, date(2024, 1, 1), date(2024, 1, 1)),
		mustRange(t, date(2024, 2, 25), date(2024, 3, 5)),
		mustRange(t, date(2023, 12, 1), date(2024, 1, 31)),
	}
	for _, rng := range ranges {
		r, err := Build(nil, nil, Params{Range: rng, Regime: model.RegimeAccrual, Unit: AllUnits})
		require.NoError(t, err)

		want := int(rng.End.Sub(rng.Start).Hours()/24) + 1
		require.Len(t, r.Days, want, rng.String())
		assert.Equal(t, rng.Start, r.Days[0].Date)
		for i := 1; i < len(r.Days); i++ {
			assert.Equal(t, r.Days[i-1].Date.AddDate(0, 0, 1), r.Days[i].Date)
		}
	}
}

func TestBuild_RangeOutsideUTC(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	rec := inflows(model.Transaction{Unit: "A", Account: "Sales", Amount: dec("10"), CashDate: date(2024, 1, 1)})

	r, err := Build([]model.RecordSet{rec}, nil, Params{
		Range:  DateRange{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, brt), End: time.Date(2024, 1, 3, 18, 30, 0, 0, brt)},
		Regime: model.RegimeCash,
		Unit:   "A",
	})
	require.NoError(t, err)

	assert.Equal(t, date(2024, 1, 1), r.Range.Start)
	assert.Equal(t, date(2024, 1, 3), r.Range.End)
	require.Len(t, r.Days, 3)
	assert.Equal(t, date(2024, 1, 1), r.Days[0].Date)
	assert.Equal(t, "10", r.Days[0].Inflow.String())
	assert.Equal(t, "10", r.Indicators.TotalInflow.String())
}

func TestBuild_ConservationAndRunningBalance(t *testing.T) {
	rec := inflows(
		model.Transaction{Unit: "A", Account: "X", Amount: dec("10.10"), CashDate: date(2024, 3, 1)},
		model.Transaction{Unit: "B", Account: "Y", Amount: dec("0.20"), CashDate: date(2024, 3, 3)},
		model.Transaction{Unit: "A", Account: "X", Amount: dec("5"), CashDate: date(2024, 2, 28)},
		model.Transaction{Unit: "A", Account: "X", Amount: dec("7"), AccrualDate: date(2024, 3, 2)},
	)
	pay := outflows(
		model.Transaction{Unit: "B", Account: "Z", Amount: dec("3.33"), CashDate: date(2024, 3, 3)},
		model.Transaction{Unit: "A", Account: "Z", Amount: dec("1"), CashDate: date(2024, 3, 9)},
	)
	opening := book(balances.Entry{Unit: "A", Balance: dec("50")}, balances.Entry{Unit: "B", Balance: dec("-20")})

	r, err := Build([]model.RecordSet{rec}, []model.RecordSet{pay}, Params{
		Range:    mustRange(t, date(2024, 3, 1), date(2024, 3, 5)),
		Regime:   model.RegimeCash,
		Unit:     AllUnits,
		Balances: opening,
	})
	require.NoError(t, err)

	assert.True(t, r.OpeningBalance.Equal(dec("30")))

	net := decimal.Zero
	for i, day := range r.Days {
		net = net.Add(day.NetChange)
		assert.True(t, day.RunningBalance.Equal(r.OpeningBalance.Add(net)), "day %d", i)
	}
	assert.True(t, net.Equal(dec("10.10").Add(dec("0.20")).Sub(dec("3.33"))))
	assert.True(t, r.Indicators.Net.Equal(net))

	assert.Equal(t, 2, r.Indicators.InflowCount)
	assert.Equal(t, 1, r.Indicators.OutflowCount)
}

func TestBuild_OutOfRangeContributesNothing(t *testing.T) {
	rng := mustRange(t, date(2024, 1, 10), date(2024, 1, 12))
	rec := inflows(
		model.Transaction{Unit: "A", Account: "X", Amount: dec("99"), CashDate: date(2024, 1, 9)},
		model.Transaction{Unit: "A", Account: "X", Amount: dec("99"), CashDate: date(2024, 1, 13)},
	)

	r, err := Build([]model.RecordSet{rec}, nil, Params{Range: rng, Regime: model.RegimeCash, Unit: "A"})
	require.NoError(t, err)
	for _, day := range r.Days {
		assert.True(t, day.Inflow.IsZero())
		assert.True(t, day.RunningBalance.IsZero())
	}
	assert.Nil(t, r.Indicators.LargestInflow)

	// Category totals cover all dates unless scoped.
	assert.Equal(t, []string{"X=198"}, totals(r.InflowByAccount))

	r, err = Build([]model.RecordSet{rec}, nil, Params{Range: rng, Regime: model.RegimeCash, Unit: "A", ScopeCategoriesToRange: true})
	require.NoError(t, err)
	assert.Empty(t, r.InflowByAccount)
}

func TestBuild_RegimeSwitch(t *testing.T) {
	rec := inflows(model.Transaction{Unit: "A", Account: "X", Amount: dec("100"), AccrualDate: date(2024, 1, 2), CashDate: date(2024, 1, 4)})
	pay := outflows(model.Transaction{Unit: "A", Account: "Y", Amount: dec("40"), AccrualDate: date(2024, 1, 1), CashDate: date(2024, 1, 3)})
	rng := mustRange(t, date(2024, 1, 1), date(2024, 1, 5))

	cash, err := Build([]model.RecordSet{rec}, []model.RecordSet{pay}, Params{Range: rng, Regime: model.RegimeCash, Unit: "A"})
	require.NoError(t, err)
	accrual, err := Build([]model.RecordSet{rec}, []model.RecordSet{pay}, Params{Range: rng, Regime: model.RegimeAccrual, Unit: "A"})
	require.NoError(t, err)

	cashDay, ok := cash.Day(date(2024, 1, 4))
	require.True(t, ok)
	accrualDay, ok := accrual.Day(date(2024, 1, 4))
	require.True(t, ok)
	assert.True(t, cashDay.Inflow.Equal(dec("100")))
	assert.True(t, accrualDay.Inflow.IsZero())

	assert.True(t, cash.Indicators.TotalInflow.Equal(accrual.Indicators.TotalInflow))
	assert.True(t, cash.Indicators.TotalOutflow.Equal(accrual.Indicators.TotalOutflow))
	assert.True(t, cash.ClosingBalance().Equal(accrual.ClosingBalance()))
}

func TestBuild_UnitFilter(t *testing.T) {
	rec := inflows(
		model.Transaction{Unit: "A", Account: "X", Amount: dec("1"), CashDate: date(2024, 1, 1)},
		model.Transaction{Unit: "B", Account: "X", Amount: dec("2"), CashDate: date(2024, 1, 1)},
	)
	pay := outflows(model.Transaction{Unit: "C", Account: "Y", Amount: dec("4"), CashDate: date(2024, 1, 1)})
	rng := mustRange(t, date(2024, 1, 1), date(2024, 1, 1))
	opening := book(balances.Entry{Unit: "A", Balance: dec("10")})

	r, err := Build([]model.RecordSet{rec}, []model.RecordSet{pay}, Params{Range: rng, Regime: model.RegimeCash, Unit: "B", Balances: opening})
	require.NoError(t, err)
	assert.True(t, r.Days[0].Inflow.Equal(dec("2")))
	assert.True(t, r.Days[0].Outflow.IsZero())
	assert.True(t, r.OpeningBalance.IsZero())

	r, err = Build([]model.RecordSet{rec}, []model.RecordSet{pay}, Params{Range: rng, Regime: model.RegimeCash, Unit: AllUnits, Balances: opening})
	require.NoError(t, err)
	assert.True(t, r.Days[0].NetChange.Equal(dec("-1")))
	assert.True(t, r.Days[0].RunningBalance.Equal(dec("9")))
	var got []string
	for _, ut := range r.UnitBreakdown {
		got = append(got, fmt.Sprintf("%s in=%s out=%s net=%s", ut.Unit, ut.Inflow, ut.Outflow, ut.Net))
	}
	assert.Equal(t, []string{
		"A in=1 out=0 net=1",
		"B in=2 out=0 net=2",
		"C in=0 out=4 net=-4",
	}, got)
}

func TestBuild_UnitNamedAll(t *testing.T) {
	rec := inflows(
		model.Transaction{Unit: "all", Account: "X", Amount: dec("5"), CashDate: date(2024, 1, 1)},
		model.Transaction{Unit: "B", Account: "X", Amount: dec("2"), CashDate: date(2024, 1, 1)},
	)
	rng := mustRange(t, date(2024, 1, 1), date(2024, 1, 1))

	r, err := Build([]model.RecordSet{rec}, nil, Params{Range: rng, Regime: model.RegimeCash, Unit: "all"})
	require.NoError(t, err)
	assert.Equal(t, "5", r.Days[0].Inflow.String())
	assert.Empty(t, r.UnitBreakdown)
}

func TestBuild_MissingColumn(t *testing.T) {
	rec := inflows()
	pay := model.RecordSet{Source: "pagar.csv", Role: model.RoleOutflow, Columns: model.DateColumns{Accrual: true}}
	rng := mustRange(t, date(2024, 1, 1), date(2024, 1, 2))

	_, err := Build([]model.RecordSet{rec}, []model.RecordSet{pay}, Params{Range: rng, Regime: model.RegimeCash, Unit: AllUnits})
	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "pagar.csv", mce.Source)
	assert.Equal(t, model.ColumnCashDate, mce.Column)
	assert.Contains(t, err.Error(), "Pagamento")

	_, err = Build([]model.RecordSet{rec}, []model.RecordSet{pay}, Params{Range: rng, Regime: model.RegimeAccrual, Unit: AllUnits})
	assert.NoError(t, err)
}

func TestBuild_InvalidParams(t *testing.T) {
	rng := mustRange(t, date(2024, 1, 1), date(2024, 1, 2))

	_, err := Build(nil, nil, Params{Range: rng, Regime: "lunar", Unit: AllUnits})
	assert.ErrorContains(t, err, "unknown regime")

	_, err = Build(nil, nil, Params{Regime: model.RegimeCash, Unit: AllUnits})
	assert.ErrorContains(t, err, "invalid date range")

	_, err = Build(nil, nil, Params{Range: DateRange{Start: date(2024, 1, 5), End: date(2024, 1, 1)}, Regime: model.RegimeCash, Unit: AllUnits})
	assert.ErrorContains(t, err, "invalid date range")

	_, err = Build(nil, nil, Params{Range: rng, Regime: model.RegimeCash})
	assert.ErrorContains(t, err, "no unit")

	_, err = Build([]model.RecordSet{outflows()}, nil, Params{Range: rng, Regime: model.RegimeCash, Unit: AllUnits})
	assert.ErrorContains(t, err, "outflow records passed as receivables")
}

func TestBuild_Indicators(t *testing.T) {
	rec := inflows(
		model.Transaction{Unit: "A", Account: "X", Amount: dec("30"), CashDate: date(2024, 1, 1)},
		model.Transaction{Unit: "B", Account: "Y", Amount: dec("50"), CashDate: date(2024, 1, 2)},
		model.Transaction{Unit: "C", Account: "Z", Amount: dec("50"), CashDate: date(2024, 1, 3)},
	)
	pay := outflows(model.Transaction{Unit: "A", Account: "W", Amount: dec("12"), CashDate: date(2024, 1, 4)})

	r, err := Build([]model.RecordSet{rec}, []model.RecordSet{pay}, Params{
		Range:  mustRange(t, date(2024, 1, 1), date(2024, 1, 4)),
		Regime: model.RegimeCash,
		Unit:   AllUnits,
	})
	require.NoError(t, err)

	ind := r.Indicators
	assert.True(t, ind.TotalInflow.Equal(dec("130")))
	assert.True(t, ind.TotalOutflow.Equal(dec("12")))
	assert.True(t, ind.Net.Equal(dec("118")))
	assert.True(t, ind.AvgDailyInflow.Equal(dec("32.5")))
	assert.True(t, ind.AvgDailyOutflow.Equal(dec("3")))

	require.NotNil(t, ind.LargestInflow)
	assert.Equal(t, "Y", ind.LargestInflow.Account)
	assert.Equal(t, "B", ind.LargestInflow.Unit)
	assert.Equal(t, date(2024, 1, 2), ind.LargestInflow.Date)
	require.NotNil(t, ind.LargestOutflow)
	assert.Equal(t, "W", ind.LargestOutflow.Account)
}

func TestReport_Day(t *testing.T) {
	r, err := Build(nil, nil, Params{Range: mustRange(t, date(2024, 1, 1), date(2024, 1, 3)), Regime: model.RegimeCash, Unit: AllUnits})
	require.NoError(t, err)

	d, ok := r.Day(time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, date(2024, 1, 2), d.Date)

	_, ok = r.Day(date(2024, 1, 4))
	assert.False(t, ok)
}

func TestUnits(t *testing.T) {
	a := inflows(model.Transaction{Unit: "Norte"}, model.Transaction{Unit: "Centro"})
	b := outflows(model.Transaction{Unit: "Centro"}, model.Transaction{Unit: "1"})
	assert.Equal(t, []string{"1", "Centro", "Norte"}, Units(a, b))
	assert.Empty(t, Units())
}

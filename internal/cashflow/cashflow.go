// Package cashflow builds the daily cash-flow ledger and its summaries from
// normalized receivables and payables.
package cashflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fortneer/fluxo/internal/balances"
	"github.com/fortneer/fluxo/internal/model"
)

// AllUnits selects every unit and the sum of all opening balances. It is not
// a valid unit name, so a unit called "all" stays selectable.
const AllUnits = "*"

// MissingColumnError reports an input set without the date column the
// chosen regime reads.
type MissingColumnError struct {
	Source string
	Column model.DateColumn
	Regime model.Regime
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: column %s is required for the %s regime", e.Source, e.Column, e.Regime)
}

// Params selects what Build aggregates.
type Params struct {
	Range  DateRange
	Regime model.Regime
	// Unit is a unit identifier or AllUnits.
	Unit string
	// Balances supplies opening balances; nil means zero for every unit.
	Balances *balances.Book
	// ScopeCategoriesToRange restricts the per-account totals to Range.
	// By default they cover every record of the selected unit.
	ScopeCategoriesToRange bool
}

// DailyEntry is one day of the ledger.
type DailyEntry struct {
	Date           time.Time
	Inflow         decimal.Decimal
	Outflow        decimal.Decimal
	NetChange      decimal.Decimal
	RunningBalance decimal.Decimal
}

// CategoryTotal is the sum of one analytic account.
type CategoryTotal struct {
	Account string
	Total   decimal.Decimal
}

// Report is the result of one aggregation. It is rebuilt on every call.
type Report struct {
	Range          DateRange
	Regime         model.Regime
	Unit           string
	OpeningBalance decimal.Decimal

	Days             []DailyEntry
	InflowByAccount  []CategoryTotal
	OutflowByAccount []CategoryTotal
	Indicators       Indicators
	// UnitBreakdown is filled only when Unit is AllUnits.
	UnitBreakdown []UnitTotal
}

// Day returns the ledger entry for date d.
func (r *Report) Day(d time.Time) (DailyEntry, bool) {
	if !r.Range.Contains(d) {
		return DailyEntry{}, false
	}
	i := int(Day(d).Sub(r.Range.Start).Hours() / 24)
	return r.Days[i], true
}

// ClosingBalance is the running balance on the last day.
func (r *Report) ClosingBalance() decimal.Decimal {
	if len(r.Days) == 0 {
		return r.OpeningBalance
	}
	return r.Days[len(r.Days)-1].RunningBalance
}

// Build aggregates receivables and payables into a Report.
// Range is reduced to calendar days first, so a range built by hand in
// another zone or with a time of day selects the same days as NewDateRange.
func Build(receivables, payables []model.RecordSet, p Params) (*Report, error) {
	rng, err := NewDateRange(p.Range.Start, p.Range.End)
	if err != nil {
		return nil, fmt.Errorf("invalid date range: %w", err)
	}
	p.Range = rng

	if err := p.validate(receivables, payables); err != nil {
		return nil, err
	}

	inflows := selectUnit(receivables, p.Unit)
	outflows := selectUnit(payables, p.Unit)

	r := &Report{
		Range:          p.Range,
		Regime:         p.Regime,
		Unit:           p.Unit,
		OpeningBalance: p.opening(),
	}

	dates := p.Range.Dates()
	r.Days = make([]DailyEntry, len(dates))
	for i, d := range dates {
		r.Days[i] = DailyEntry{Date: d}
	}

	for _, t := range inflows {
		if i, ok := r.index(t, p.Regime); ok {
			r.Days[i].Inflow = r.Days[i].Inflow.Add(t.Amount)
		}
	}
	for _, t := range outflows {
		if i, ok := r.index(t, p.Regime); ok {
			r.Days[i].Outflow = r.Days[i].Outflow.Add(t.Amount)
		}
	}

	balance := r.OpeningBalance
	for i := range r.Days {
		day := &r.Days[i]
		day.NetChange = day.Inflow.Sub(day.Outflow)
		balance = balance.Add(day.NetChange)
		day.RunningBalance = balance
	}

	catIn, catOut := inflows, outflows
	if p.ScopeCategoriesToRange {
		catIn = r.inRange(inflows)
		catOut = r.inRange(outflows)
	}
	r.InflowByAccount = byAccount(catIn)
	r.OutflowByAccount = byAccount(catOut)

	r.Indicators = r.indicators(r.inRange(inflows), r.inRange(outflows))
	if p.Unit == AllUnits {
		r.UnitBreakdown = byUnit(r.inRange(inflows), r.inRange(outflows))
	}
	return r, nil
}

func (p Params) validate(receivables, payables []model.RecordSet) error {
	if p.Regime != model.RegimeCash && p.Regime != model.RegimeAccrual {
		return fmt.Errorf("unknown regime %q", p.Regime)
	}
	if p.Unit == "" {
		return fmt.Errorf("no unit selected")
	}

	col := p.Regime.DateColumn()
	check := func(sets []model.RecordSet, want model.Role, as string) error {
		for _, s := range sets {
			if s.Role != want {
				return fmt.Errorf("%s: %s records passed as %s", s.Source, s.Role, as)
			}
			if !s.Columns.Has(col) {
				return &MissingColumnError{Source: s.Source, Column: col, Regime: p.Regime}
			}
		}
		return nil
	}
	if err := check(receivables, model.RoleInflow, "receivables"); err != nil {
		return err
	}
	return check(payables, model.RoleOutflow, "payables")
}

func (p Params) opening() decimal.Decimal {
	if p.Balances == nil {
		return decimal.Zero
	}
	if p.Unit == AllUnits {
		return p.Balances.Total()
	}
	return p.Balances.Get(p.Unit)
}

// index locates the ledger day of t under regime. Records without the date
// or outside the range are not placed.
func (r *Report) index(t model.Transaction, regime model.Regime) (int, bool) {
	d, ok := t.DateFor(regime)
	if !ok || !r.Range.Contains(d) {
		return 0, false
	}
	return int(Day(d).Sub(r.Range.Start).Hours() / 24), true
}

func (r *Report) inRange(txns []model.Transaction) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if _, ok := r.index(t, r.Regime); ok {
			out = append(out, t)
		}
	}
	return out
}

func selectUnit(sets []model.RecordSet, unit string) []model.Transaction {
	var out []model.Transaction
	for _, s := range sets {
		if unit != AllUnits {
			s = s.FilterUnit(unit)
		}
		out = append(out, s.Records...)
	}
	return out
}

func byAccount(txns []model.Transaction) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for _, t := range txns {
		sums[t.Account] = sums[t.Account].Add(t.Amount)
	}

	totals := make([]CategoryTotal, 0, len(sums))
	for acct, sum := range sums {
		totals = append(totals, CategoryTotal{Account: acct, Total: sum})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Account < totals[j].Account })
	return totals
}

// Units returns the sorted set of units found in sets.
func Units(sets ...model.RecordSet) []string {
	seen := make(map[string]bool)
	for _, s := range sets {
		for _, t := range s.Records {
			seen[t.Unit] = true
		}
	}

	units := make([]string, 0, len(seen))
	for u := range seen {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fortneer/fluxo/internal/cashflow"
)

const isoDate = "2006-01-02"

type jsonReport struct {
	Title            string         `json:"title"`
	Unit             string         `json:"unit"`
	Regime           string         `json:"regime"`
	From             string         `json:"from"`
	To               string         `json:"to"`
	OpeningBalance   string         `json:"opening_balance"`
	ClosingBalance   string         `json:"closing_balance"`
	Days             []jsonDay      `json:"days"`
	InflowByAccount  []jsonCategory `json:"inflow_by_account"`
	OutflowByAccount []jsonCategory `json:"outflow_by_account"`
	Indicators       jsonIndicators `json:"indicators"`
	UnitBreakdown    []jsonUnit     `json:"unit_breakdown,omitempty"`
}

type jsonDay struct {
	Date           string `json:"date"`
	Inflow         string `json:"inflow"`
	Outflow        string `json:"outflow"`
	NetChange      string `json:"net_change"`
	RunningBalance string `json:"running_balance"`
}

type jsonCategory struct {
	Account string `json:"account"`
	Total   string `json:"total"`
}

type jsonIndicators struct {
	TotalInflow     string        `json:"total_inflow"`
	TotalOutflow    string        `json:"total_outflow"`
	Net             string        `json:"net"`
	AvgDailyInflow  string        `json:"avg_daily_inflow"`
	AvgDailyOutflow string        `json:"avg_daily_outflow"`
	InflowCount     int           `json:"inflow_count"`
	OutflowCount    int           `json:"outflow_count"`
	LargestInflow   *jsonMovement `json:"largest_inflow"`
	LargestOutflow  *jsonMovement `json:"largest_outflow"`
}

type jsonMovement struct {
	Account string `json:"account"`
	Unit    string `json:"unit"`
	Date    string `json:"date"`
	Amount  string `json:"amount"`
}

type jsonUnit struct {
	Unit    string `json:"unit"`
	Inflow  string `json:"inflow"`
	Outflow string `json:"outflow"`
	Net     string `json:"net"`
}

// amount renders exact decimals with two places, as strings so that no
// consumer reads them through float64.
func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// WriteJSON renders r as indented JSON.
func WriteJSON(w io.Writer, r *cashflow.Report) error {
	out := jsonReport{
		Title:          Title(r),
		Unit:           r.Unit,
		Regime:         string(r.Regime),
		From:           r.Range.Start.Format(isoDate),
		To:             r.Range.End.Format(isoDate),
		OpeningBalance: amount(r.OpeningBalance),
		ClosingBalance: amount(r.ClosingBalance()),
		Days:           make([]jsonDay, len(r.Days)),
		Indicators: jsonIndicators{
			TotalInflow:     amount(r.Indicators.TotalInflow),
			TotalOutflow:    amount(r.Indicators.TotalOutflow),
			Net:             amount(r.Indicators.Net),
			AvgDailyInflow:  amount(r.Indicators.AvgDailyInflow),
			AvgDailyOutflow: amount(r.Indicators.AvgDailyOutflow),
			InflowCount:     r.Indicators.InflowCount,
			OutflowCount:    r.Indicators.OutflowCount,
			LargestInflow:   jsonMove(r.Indicators.LargestInflow),
			LargestOutflow:  jsonMove(r.Indicators.LargestOutflow),
		},
		InflowByAccount:  jsonCategories(r.InflowByAccount),
		OutflowByAccount: jsonCategories(r.OutflowByAccount),
	}
	for i, d := range r.Days {
		out.Days[i] = jsonDay{
			Date:           d.Date.Format(isoDate),
			Inflow:         amount(d.Inflow),
			Outflow:        amount(d.Outflow),
			NetChange:      amount(d.NetChange),
			RunningBalance: amount(d.RunningBalance),
		}
	}
	for _, ut := range r.UnitBreakdown {
		out.UnitBreakdown = append(out.UnitBreakdown, jsonUnit{
			Unit: ut.Unit, Inflow: amount(ut.Inflow), Outflow: amount(ut.Outflow), Net: amount(ut.Net),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func jsonCategories(totals []cashflow.CategoryTotal) []jsonCategory {
	out := make([]jsonCategory, len(totals))
	for i, ct := range totals {
		out[i] = jsonCategory{Account: ct.Account, Total: amount(ct.Total)}
	}
	return out
}

func jsonMove(m *cashflow.Movement) *jsonMovement {
	if m == nil {
		return nil
	}
	return &jsonMovement{Account: m.Account, Unit: m.Unit, Date: formatDate(m.Date), Amount: amount(m.Amount)}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(isoDate)
}

// Package report renders a cash-flow report as PDF, workbook, text or JSON.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fortneer/fluxo/internal/cashflow"
	"github.com/fortneer/fluxo/internal/money"
)

// Options controls presentation only; figures come from the report as is.
type Options struct {
	Business       string
	CurrencyPrefix string
	Generated      time.Time
}

func (o Options) money(d decimal.Decimal) string {
	return money.FormatWith(o.CurrencyPrefix, d)
}

const dateLayout = "02/01/2006"

// UnitLabel is the display name of a unit selection.
func UnitLabel(unit string) string {
	if unit == cashflow.AllUnits {
		return "Todas"
	}
	return unit
}

// Title is the heading shared by every rendered format.
func Title(r *cashflow.Report) string {
	return fmt.Sprintf("Relatório Financeiro - Unidade: %s - Regime: %s", UnitLabel(r.Unit), r.Regime.Label())
}

// FileName builds the export name, e.g. relatorio-centro-cash-20240101-20240131.pdf.
// The all-units selection is named "todas".
func FileName(r *cashflow.Report, ext string) string {
	unit := strings.ToLower(strings.Join(strings.Fields(UnitLabel(r.Unit)), "-"))
	unit = strings.Map(func(c rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, c) {
			return '-'
		}
		return c
	}, unit)
	return fmt.Sprintf("relatorio-%s-%s-%s-%s.%s",
		unit, r.Regime, r.Range.Start.Format("20060102"), r.Range.End.Format("20060102"), ext)
}

type summaryLine struct {
	label string
	value string
}

// summary lists the headline figures in display order.
func summary(r *cashflow.Report, o Options) []summaryLine {
	ind := r.Indicators
	lines := []summaryLine{
		{"Saldo inicial", o.money(r.OpeningBalance)},
		{"Total de recebimentos", o.money(ind.TotalInflow)},
		{"Total de pagamentos", o.money(ind.TotalOutflow)},
		{"Resultado do período", o.money(ind.Net)},
		{"Saldo final", o.money(r.ClosingBalance())},
		{"Média diária de recebimentos", o.money(ind.AvgDailyInflow)},
		{"Média diária de pagamentos", o.money(ind.AvgDailyOutflow)},
	}
	if m := ind.LargestInflow; m != nil {
		lines = append(lines, summaryLine{"Maior recebimento", movement(m, o)})
	}
	if m := ind.LargestOutflow; m != nil {
		lines = append(lines, summaryLine{"Maior pagamento", movement(m, o)})
	}
	return lines
}

func movement(m *cashflow.Movement, o Options) string {
	return fmt.Sprintf("%s (%s, %s, %s)", o.money(m.Amount), m.Account, m.Unit, m.Date.Format(dateLayout))
}

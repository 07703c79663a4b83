package ingest

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fortneer/fluxo/internal/model"
	"github.com/fortneer/fluxo/internal/sheet"
)

var cashReportColumns = []string{ColReceipt, ColReceiptDate, ColAccount + " (optional)", ColUnit + " (optional)"}

// CashReportAdapter converts cash-receipt reports, which carry an Entrada
// column and a receipt date but may lack account and unit breakdowns.
type CashReportAdapter struct {
	opts Options
	log  zerolog.Logger
}

// NewCashReportAdapter creates a CashReportAdapter.
func NewCashReportAdapter(opts Options, log zerolog.Logger) *CashReportAdapter {
	return &CashReportAdapter{opts: opts, log: log}
}

// Kind returns "cash-report".
func (a *CashReportAdapter) Kind() string { return KindCashReport }

// Adapt validates the shape of t and converts it. Any non-numeric Entrada
// value rejects the whole batch regardless of the row policy.
func (a *CashReportAdapter) Adapt(t *sheet.Table) (model.RecordSet, error) {
	inflowCol := t.Column(ColReceipt)
	dateCol := t.Column(ColReceiptDate)
	unitCol := t.Column(ColUnit)
	accountCol := t.Column(ColAccount)

	var missing []string
	if inflowCol < 0 {
		missing = append(missing, ColReceipt)
	}
	if dateCol < 0 {
		missing = append(missing, ColReceiptDate)
	}
	if len(missing) > 0 {
		return model.RecordSet{}, &SchemaError{
			Source:   t.Source,
			Reason:   fmt.Sprintf("not a cash report: missing column(s) %v", missing),
			Expected: cashReportColumns,
		}
	}
	if unitCol < 0 && a.opts.DefaultUnit == "" {
		return model.RecordSet{}, &SchemaError{
			Source:   t.Source,
			Reason:   "no " + ColUnit + " column and no default unit configured",
			Expected: cashReportColumns,
		}
	}

	set := model.RecordSet{
		Source:  t.Source,
		Role:    model.RoleInflow,
		Columns: model.DateColumns{Cash: true, Accrual: true},
	}

	var badRows []int
	for i := range t.Rows {
		if t.BlankRow(i) {
			continue
		}
		row := sheet.RowNumber(i)

		amount, err := parseAmount(t.Cell(i, inflowCol))
		if err != nil {
			badRows = append(badRows, row)
			continue
		}

		// A receipt is recognized on the day it is received.
		date, err := parseDate(t.Cell(i, dateCol))
		unit := unitOf(t.Cell(i, unitCol), a.opts.DefaultUnit)
		var rerr *RowError
		switch {
		case err != nil:
			rerr = &RowError{Source: t.Source, Row: row, Column: ColReceiptDate, Err: err}
		case unit == "":
			rerr = &RowError{Source: t.Source, Row: row, Column: ColUnit, Err: errors.New("blank unit and no default unit configured")}
		}
		if rerr != nil {
			if a.opts.OnInvalidRow == SkipInvalid {
				a.log.Warn().Err(rerr).Str("source", t.Source).Int("row", row).Msg("skipping invalid row")
				set.Skipped++
				continue
			}
			return model.RecordSet{}, rerr
		}

		set.Records = append(set.Records, model.Transaction{
			Unit:        unit,
			Account:     accountOf(t.Cell(i, accountCol), a.opts.DefaultAccount),
			Amount:      amount,
			CashDate:    date,
			AccrualDate: date,
			Source:      t.Source,
			Row:         row,
		})
	}

	if len(badRows) > 0 {
		return model.RecordSet{}, &SchemaError{
			Source:   t.Source,
			Reason:   fmt.Sprintf("%s values are not numeric after cleaning", ColReceipt),
			Expected: cashReportColumns,
			Rows:     badRows,
		}
	}

	a.log.Debug().
		Str("source", t.Source).
		Int("records", len(set.Records)).
		Msg("adapted cash report")
	return set, nil
}

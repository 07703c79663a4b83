package ingest

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/fortneer/fluxo/internal/model"
	"github.com/fortneer/fluxo/internal/sheet"
)

var ledgerColumns = []string{ColValue, ColCashDate + " (optional)", ColAccrualDate + " (optional)", ColUnit, ColAccount}

// Normalizer converts receivable or payable sheets into canonical records.
type Normalizer struct {
	role model.Role
	opts Options
	log  zerolog.Logger
}

// NewNormalizer creates a Normalizer whose records feed role.
func NewNormalizer(role model.Role, opts Options, log zerolog.Logger) *Normalizer {
	return &Normalizer{role: role, opts: opts, log: log}
}

// Kind returns "receivables" for inflow and "payables" for outflow.
func (n *Normalizer) Kind() string {
	if n.role == model.RoleOutflow {
		return KindPayables
	}
	return KindReceivables
}

type ledgerCols struct {
	amount, cash, accrual, unit, account int
}

// Adapt parses every row of t. Blank rows are ignored; rows that fail follow
// the configured RowPolicy.
func (n *Normalizer) Adapt(t *sheet.Table) (model.RecordSet, error) {
	cols := ledgerCols{
		amount:  t.Column(ColValue),
		cash:    t.Column(ColCashDate),
		accrual: t.Column(ColAccrualDate),
		unit:    t.Column(ColUnit),
		account: t.Column(ColAccount),
	}
	if cols.amount < 0 {
		return model.RecordSet{}, &SchemaError{
			Source:   t.Source,
			Reason:   "missing column " + ColValue,
			Expected: ledgerColumns,
		}
	}
	if cols.unit < 0 && n.opts.DefaultUnit == "" {
		return model.RecordSet{}, &SchemaError{
			Source:   t.Source,
			Reason:   "no " + ColUnit + " column and no default unit configured",
			Expected: ledgerColumns,
		}
	}

	set := model.RecordSet{
		Source:  t.Source,
		Role:    n.role,
		Columns: model.DateColumns{Cash: cols.cash >= 0, Accrual: cols.accrual >= 0},
	}

	for i := range t.Rows {
		if t.BlankRow(i) {
			continue
		}
		txn, err := n.record(t, i, cols)
		if err != nil {
			if n.opts.OnInvalidRow == SkipInvalid {
				n.log.Warn().Err(err).Str("source", t.Source).Int("row", sheet.RowNumber(i)).Msg("skipping invalid row")
				set.Skipped++
				continue
			}
			return model.RecordSet{}, err
		}
		set.Records = append(set.Records, txn)
	}

	n.log.Debug().
		Str("source", t.Source).
		Str("kind", n.Kind()).
		Int("records", len(set.Records)).
		Int("skipped", set.Skipped).
		Msg("normalized sheet")
	return set, nil
}

func (n *Normalizer) record(t *sheet.Table, i int, cols ledgerCols) (model.Transaction, error) {
	row := sheet.RowNumber(i)

	amount, err := parseAmount(t.Cell(i, cols.amount))
	if err != nil {
		return model.Transaction{}, &RowError{Source: t.Source, Row: row, Column: ColValue, Err: err}
	}

	unit := unitOf(t.Cell(i, cols.unit), n.opts.DefaultUnit)
	if unit == "" {
		return model.Transaction{}, &RowError{Source: t.Source, Row: row, Column: ColUnit, Err: errors.New("blank unit and no default unit configured")}
	}

	txn := model.Transaction{
		Unit:    unit,
		Account: accountOf(t.Cell(i, cols.account), n.opts.DefaultAccount),
		Amount:  amount,
		Source:  t.Source,
		Row:     row,
	}

	if cols.cash >= 0 {
		if txn.CashDate, err = parseDate(t.Cell(i, cols.cash)); err != nil {
			return model.Transaction{}, &RowError{Source: t.Source, Row: row, Column: ColCashDate, Err: err}
		}
	}
	if cols.accrual >= 0 {
		if txn.AccrualDate, err = parseDate(t.Cell(i, cols.accrual)); err != nil {
			return model.Transaction{}, &RowError{Source: t.Source, Row: row, Column: ColAccrualDate, Err: err}
		}
	}
	return txn, nil
}

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role is the side of the cash flow a record set feeds.
type Role string

const (
	RoleInflow  Role = "inflow"  // receivables, cash receipts
	RoleOutflow Role = "outflow" // payables
)

// Regime selects the date that places a transaction on the calendar.
type Regime string

const (
	// RegimeCash buckets by settlement date (Pagamento).
	RegimeCash Regime = "cash"
	// RegimeAccrual buckets by invoice/transaction date (Data).
	RegimeAccrual Regime = "accrual"
)

// DateColumn names the date field a regime reads.
type DateColumn string

const (
	ColumnCashDate    DateColumn = "Pagamento"
	ColumnAccrualDate DateColumn = "Data"
)

// ParseRegime accepts "cash"/"accrual" and the pt-BR names "caixa"/"competencia".
func ParseRegime(s string) (Regime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash", "caixa":
		return RegimeCash, nil
	case "accrual", "competencia", "competência":
		return RegimeAccrual, nil
	default:
		return "", fmt.Errorf("unknown regime %q (want cash or accrual)", s)
	}
}

// DateColumn returns the source column that governs bucketing under r.
func (r Regime) DateColumn() DateColumn {
	if r == RegimeAccrual {
		return ColumnAccrualDate
	}
	return ColumnCashDate
}

// Label is the pt-BR name used in rendered reports.
func (r Regime) Label() string {
	if r == RegimeAccrual {
		return "Competência"
	}
	return "Caixa"
}

// Transaction is one normalized receivable or payable line.
type Transaction struct {
	Unit        string
	Account     string
	Amount      decimal.Decimal
	AccrualDate time.Time // zero when absent
	CashDate    time.Time // zero when absent
	Source      string
	Row         int
}

// DateFor returns the date the regime reads and whether it is present.
func (t Transaction) DateFor(r Regime) (time.Time, bool) {
	d := t.CashDate
	if r.DateColumn() == ColumnAccrualDate {
		d = t.AccrualDate
	}
	return d, !d.IsZero()
}

// DateColumns records which date columns a source sheet carried.
type DateColumns struct {
	Cash    bool
	Accrual bool
}

// Has reports whether column c was present in the source.
func (c DateColumns) Has(col DateColumn) bool {
	switch col {
	case ColumnCashDate:
		return c.Cash
	case ColumnAccrualDate:
		return c.Accrual
	default:
		return false
	}
}

// RecordSet is the normalized content of one input file.
type RecordSet struct {
	Source  string
	Role    Role
	Columns DateColumns
	Records []Transaction
	Skipped int // rows dropped under the skip policy
}

// FilterUnit returns a copy holding only records of unit. The column set is
// kept so that regime checks still apply to an empty result.
func (s RecordSet) FilterUnit(unit string) RecordSet {
	out := s
	out.Records = nil
	for _, t := range s.Records {
		if t.Unit == unit {
			out.Records = append(out.Records, t)
		}
	}
	return out
}

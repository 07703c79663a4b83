package journal

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fortneer/fluxo/internal/model"
)

// Journal column names. The date columns are written only when the source
// sheet had them, so a re-ingested journal keeps the original shape.
const (
	FieldRole        = "role"
	FieldUnit        = "unit"
	FieldAccount     = "account"
	FieldAmount      = "amount"
	FieldAccrualDate = "accrual_date"
	FieldCashDate    = "cash_date"
	FieldSource      = "source"
	FieldRow         = "row"
)

const dateFormat = "2006-01-02"

// Prefix is the fixed start of every journal header.
var Prefix = strings.Join([]string{FieldRole, FieldUnit, FieldAccount, FieldAmount}, ",")

// Header returns the header for a set with the given date columns.
func Header(cols model.DateColumns) []string {
	h := []string{FieldRole, FieldUnit, FieldAccount, FieldAmount}
	if cols.Accrual {
		h = append(h, FieldAccrualDate)
	}
	if cols.Cash {
		h = append(h, FieldCashDate)
	}
	return append(h, FieldSource, FieldRow)
}

// Write writes set as a journal CSV, header included.
func Write(w io.Writer, set model.RecordSet) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header(set.Columns)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, txn := range set.Records {
		if err := cw.Write(MarshalRecord(txn, set.Role, set.Columns)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRecord converts a transaction to a CSV row laid out like Header(cols).
func MarshalRecord(txn model.Transaction, role model.Role, cols model.DateColumns) []string {
	row := []string{string(role), txn.Unit, txn.Account, txn.Amount.String()}
	if cols.Accrual {
		row = append(row, formatDate(txn.AccrualDate))
	}
	if cols.Cash {
		row = append(row, formatDate(txn.CashDate))
	}
	rowNum := ""
	if txn.Row > 0 {
		rowNum = strconv.Itoa(txn.Row)
	}
	return append(row, txn.Source, rowNum)
}

// Read parses a journal CSV whose rows must all carry role. source names the
// returned set.
func Read(r io.Reader, source string, role model.Role) (model.RecordSet, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return model.RecordSet{}, fmt.Errorf("reading journal CSV: %w", err)
	}
	if len(records) == 0 {
		return model.RecordSet{}, errors.New("reading journal CSV: no header")
	}

	lay, err := parseHeader(records[0])
	if err != nil {
		return model.RecordSet{}, err
	}

	set := model.RecordSet{
		Source:  source,
		Role:    role,
		Columns: model.DateColumns{Accrual: lay.accrual >= 0, Cash: lay.cash >= 0},
	}
	for i, rec := range records[1:] {
		txn, recRole, err := lay.unmarshal(rec)
		if err != nil {
			return model.RecordSet{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		if recRole != role {
			return model.RecordSet{}, fmt.Errorf("row %d: role %q, want %q", i+2, recRole, role)
		}
		set.Records = append(set.Records, txn)
	}
	return set, nil
}

type layout struct {
	n                             int
	accrual, cash, source, rowNum int
}

func parseHeader(h []string) (layout, error) {
	if len(h) < 4 || strings.Join(h[:4], ",") != Prefix {
		return layout{}, fmt.Errorf("not a journal header: %q", strings.Join(h, ","))
	}
	lay := layout{n: len(h), accrual: -1, cash: -1, source: -1, rowNum: -1}
	for i, name := range h[4:] {
		col := i + 4
		switch name {
		case FieldAccrualDate:
			lay.accrual = col
		case FieldCashDate:
			lay.cash = col
		case FieldSource:
			lay.source = col
		case FieldRow:
			lay.rowNum = col
		default:
			return layout{}, fmt.Errorf("unknown journal column %q", name)
		}
	}
	return lay, nil
}

func (l layout) unmarshal(rec []string) (model.Transaction, model.Role, error) {
	if len(rec) != l.n {
		return model.Transaction{}, "", fmt.Errorf("expected %d fields, got %d", l.n, len(rec))
	}

	amount, err := decimal.NewFromString(rec[3])
	if err != nil {
		return model.Transaction{}, "", fmt.Errorf("parsing amount %q: %w", rec[3], err)
	}

	txn := model.Transaction{Unit: rec[1], Account: rec[2], Amount: amount}
	if l.accrual >= 0 {
		if txn.AccrualDate, err = parseDate(rec[l.accrual]); err != nil {
			return model.Transaction{}, "", err
		}
	}
	if l.cash >= 0 {
		if txn.CashDate, err = parseDate(rec[l.cash]); err != nil {
			return model.Transaction{}, "", err
		}
	}
	if l.source >= 0 {
		txn.Source = rec[l.source]
	}
	if l.rowNum >= 0 && rec[l.rowNum] != "" {
		if txn.Row, err = strconv.Atoi(rec[l.rowNum]); err != nil {
			return model.Transaction{}, "", fmt.Errorf("parsing row %q: %w", rec[l.rowNum], err)
		}
	}
	return txn, model.Role(rec[0]), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// IsJournal reports whether the file at path starts with a journal header.
func IsJournal(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(line), Prefix)
}

// ReadFile reads a journal file written by WriteFile.
func ReadFile(path string, role model.Role) (model.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RecordSet{}, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	set, err := Read(f, path, role)
	if err != nil {
		return model.RecordSet{}, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return set, nil
}

// WriteFile writes set to path, replacing any existing file.
func WriteFile(path string, set model.RecordSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating journal: %w", err)
	}
	if err := Write(f, set); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

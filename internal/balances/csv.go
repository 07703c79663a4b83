package balances

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

const (
	numFields  = 2
	colUnit    = 0
	colBalance = 1
)

// Entry is one unit's opening balance.
type Entry struct {
	Unit    string
	Balance decimal.Decimal
}

// ReadEntries reads opening-balances.csv.
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading balances CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes opening-balances.csv.
func WriteEntries(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"unit", "opening_balance"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colUnit] = e.Unit
	row[colBalance] = e.Balance.StringFixed(2)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colUnit] == "" {
		return Entry{}, errors.New("empty unit")
	}

	bal, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing opening_balance %q: %w", record[colBalance], err)
	}
	return Entry{Unit: record[colUnit], Balance: bal}, nil
}

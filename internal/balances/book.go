package balances

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
)

// FileName is the opening-balance file at the project root.
const FileName = "opening-balances.csv"

// Book maps units to opening balances. The zero value is not usable; create
// one with NewBook.
type Book struct {
	byUnit map[string]decimal.Decimal
}

// NewBook creates a Book from entries. Later entries for the same unit win.
func NewBook(entries []Entry) *Book {
	b := &Book{byUnit: make(map[string]decimal.Decimal, len(entries))}
	for _, e := range entries {
		b.byUnit[e.Unit] = e.Balance
	}
	return b
}

// Get returns the opening balance of unit, zero when the unit has none.
func (b *Book) Get(unit string) decimal.Decimal {
	return b.byUnit[unit]
}

// Has reports whether unit has an entry.
func (b *Book) Has(unit string) bool {
	_, ok := b.byUnit[unit]
	return ok
}

// Set records the opening balance of unit.
func (b *Book) Set(unit string, bal decimal.Decimal) {
	b.byUnit[unit] = bal
}

// Total sums every unit's opening balance.
func (b *Book) Total() decimal.Decimal {
	total := decimal.Zero
	for _, bal := range b.byUnit {
		total = total.Add(bal)
	}
	return total
}

// Units lists units with an entry in sorted order.
func (b *Book) Units() []string {
	units := make([]string, 0, len(b.byUnit))
	for u := range b.byUnit {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

// Entries returns the book sorted by unit.
func (b *Book) Entries() []Entry {
	units := b.Units()
	entries := make([]Entry, len(units))
	for i, u := range units {
		entries[i] = Entry{Unit: u, Balance: b.byUnit[u]}
	}
	return entries
}

// Load reads opening-balances.csv from a project root. A missing file is an
// empty book.
func Load(projectRoot string) (*Book, error) {
	path := filepath.Join(projectRoot, FileName)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewBook(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening balances: %w", err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading balances: %w", err)
	}
	return NewBook(entries), nil
}

// Save writes the book to opening-balances.csv under projectRoot.
func (b *Book) Save(projectRoot string) error {
	path := filepath.Join(projectRoot, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating balances file: %w", err)
	}
	defer f.Close()

	if err := WriteEntries(f, b.Entries()); err != nil {
		return fmt.Errorf("writing balances: %w", err)
	}
	return nil
}

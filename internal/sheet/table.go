package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind tells how a cell value was stored in the source file.
type Kind int

const (
	// KindText is a string cell, or any cell of a text-only format (CSV).
	KindText Kind = iota
	// KindNumber is a numeric workbook cell. Text holds its raw canonical
	// value ("1234.5", or a date serial such as "45296").
	KindNumber
)

// Cell is one value of a row.
type Cell struct {
	Text string
	Kind Kind
}

// IsBlank reports whether the cell holds nothing but whitespace.
func (c Cell) IsBlank() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Text builds a text cell.
func Text(s string) Cell { return Cell{Text: s, Kind: KindText} }

// Number builds a numeric cell.
func Number(f float64) Cell {
	return Cell{Text: strconv.FormatFloat(f, 'f', -1, 64), Kind: KindNumber}
}

// Table is a header row plus data rows read from the first sheet of a file.
type Table struct {
	Source string
	Header []string
	Rows   [][]Cell

	index map[string]int
}

// NewTable builds a table from already-split cells. Row numbers reported by
// callers are 1-based spreadsheet rows: the header is row 1.
func NewTable(source string, header []string, rows [][]Cell) *Table {
	t := &Table{Source: source, Header: header, Rows: rows}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := HeaderKey(h)
		if key == "" {
			continue
		}
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
}

// Column returns the index of the column whose header matches name, or -1.
// Matching ignores case, accents and surrounding whitespace.
func (t *Table) Column(name string) int {
	if t.index == nil {
		t.buildIndex()
	}
	if i, ok := t.index[HeaderKey(name)]; ok {
		return i
	}
	return -1
}

// Has reports whether the table has a column named name.
func (t *Table) Has(name string) bool {
	return t.Column(name) >= 0
}

// Cell returns the cell at row, col. Missing trailing cells read as blank text.
func (t *Table) Cell(row, col int) Cell {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return Cell{}
	}
	r := t.Rows[row]
	if col >= len(r) {
		return Cell{}
	}
	return r[col]
}

// RowNumber converts a data-row index into the 1-based spreadsheet row.
func RowNumber(i int) int { return i + 2 }

// BlankRow reports whether every cell of data row i is blank.
func (t *Table) BlankRow(i int) bool {
	for _, c := range t.Rows[i] {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// HeaderKey folds a header for comparison: "  Conta Analítica" -> "conta analitica".
func HeaderKey(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(tr, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func (t *Table) String() string {
	return fmt.Sprintf("%s (%d columns, %d rows)", t.Source, len(t.Header), len(t.Rows))
}

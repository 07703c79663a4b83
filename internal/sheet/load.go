package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format identifies a spreadsheet container.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// Extensions lists the file extensions Load understands.
var Extensions = []string{".xlsx", ".xls", ".csv"}

// LoadError reports a file that cannot be read as tabular data.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Options controls decoding of text formats.
type Options struct {
	// Encoding of CSV files: "utf-8" (default), "latin1" or "windows-1252".
	Encoding string
	// Comma forces the CSV separator; zero auto-detects ';' or ','.
	Comma rune
}

// FormatOf maps a file name to its Format by extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, true
	case ".xls":
		return FormatXLS, true
	case ".csv":
		return FormatCSV, true
	default:
		return "", false
	}
}

// Load reads the first sheet of the file at path.
func Load(path string, opts Options) (*Table, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, &LoadError{Source: path, Err: fmt.Errorf("unsupported file type %q", filepath.Ext(path))}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	return Read(f, format, path, opts)
}

// Read parses r as format. source names the input in errors and records.
func Read(r io.Reader, format Format, source string, opts Options) (*Table, error) {
	var (
		rows [][]Cell
		err  error
	)
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(r)
	case FormatXLS:
		rows, err = readXLS(r)
	case FormatCSV:
		rows, err = readCSV(r, opts)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	if len(rows) == 0 {
		return nil, &LoadError{Source: source, Err: errors.New("no header row")}
	}

	header := make([]string, len(rows[0]))
	for i, c := range rows[0] {
		header[i] = strings.TrimSpace(c.Text)
	}
	return NewTable(source, header, rows[1:]), nil
}

func readXLSX(r io.Reader) ([][]Cell, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	name := sheets[0]

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", name, err)
	}

	rows := make([][]Cell, len(raw))
	for ri, row := range raw {
		cells := make([]Cell, len(row))
		for ci, v := range row {
			cells[ci] = Text(v)
			if strings.TrimSpace(v) == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				continue
			}
			typ, err := f.GetCellType(name, axis)
			if err != nil || !numericCellType(typ) {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				cells[ci].Kind = KindNumber
			}
		}
		rows[ri] = cells
	}
	return rows, nil
}

func numericCellType(t excelize.CellType) bool {
	switch t {
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		return true
	default:
		return false
	}
}

func readXLS(r io.Reader) ([][]Cell, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening legacy workbook: %w", err)
	}
	if len(wb.GetSheets()) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("reading first sheet: %w", err)
	}

	var rows [][]Cell
	for _, row := range sheet.GetRows() {
		var cells []Cell
		for _, col := range row.GetCols() {
			s := col.GetString()
			c := Text(s)
			if f := col.GetFloat64(); f != 0 {
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && parsed == f {
					c.Kind = KindNumber
				}
			}
			cells = append(cells, c)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func readCSV(r io.Reader, opts Options) ([][]Cell, error) {
	enc, err := textEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(transform.NewReader(r, enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", opts.Encoding, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = opts.Comma
	if cr.Comma == 0 {
		cr.Comma = detectComma(data)
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	rows := make([][]Cell, len(records))
	for i, rec := range records {
		cells := make([]Cell, len(rec))
		for j, v := range rec {
			cells[j] = Text(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

// detectComma picks ';' when the header line has more semicolons than commas.
// pt-BR exports use ';' because ',' is the decimal separator.
func detectComma(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func textEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

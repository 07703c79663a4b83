// Package runlog keeps the history of generated reports in logs/report-log.csv.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry is one report run.
type Entry struct {
	RunID      string
	Timestamp  time.Time
	Unit       string
	Regime     string
	From       time.Time
	To         time.Time
	Records    int
	Outputs    []string // export paths relative to the project root
	CommitHash string
}

// Header is the CSV header for report-log.csv.
const Header = "run_id,timestamp,unit,regime,from,to,records,outputs,commit_hash"

const (
	numFields     = 9
	logDir        = "logs"
	logFile       = "logs/report-log.csv"
	dateFormat    = "2006-01-02"
	colRunID      = 0
	colTimestamp  = 1
	colUnit       = 2
	colRegime     = 3
	colFrom       = 4
	colTo         = 5
	colRecords    = 6
	colOutputs    = 7
	colCommitHash = 8
)

// NewRunID returns a new lexically sortable run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colRunID] = e.RunID
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colUnit] = e.Unit
	row[colRegime] = e.Regime
	row[colFrom] = e.From.Format(dateFormat)
	row[colTo] = e.To.Format(dateFormat)
	row[colRecords] = strconv.Itoa(e.Records)
	row[colOutputs] = strings.Join(e.Outputs, ";")
	row[colCommitHash] = e.CommitHash
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	if _, err := ulid.ParseStrict(record[colRunID]); err != nil {
		return Entry{}, fmt.Errorf("parsing run_id %q: %w", record[colRunID], err)
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	from, err := time.Parse(dateFormat, record[colFrom])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing from %q: %w", record[colFrom], err)
	}
	to, err := time.Parse(dateFormat, record[colTo])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing to %q: %w", record[colTo], err)
	}
	records, err := strconv.Atoi(record[colRecords])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing records %q: %w", record[colRecords], err)
	}

	var outputs []string
	if record[colOutputs] != "" {
		outputs = strings.Split(record[colOutputs], ";")
	}

	return Entry{
		RunID:      record[colRunID],
		Timestamp:  ts,
		Unit:       record[colUnit],
		Regime:     record[colRegime],
		From:       from,
		To:         to,
		Records:    records,
		Outputs:    outputs,
		CommitHash: record[colCommitHash],
	}, nil
}

// Path returns the log file location under projectRoot.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, logFile)
}

// Append writes entries to <projectRoot>/logs/report-log.csv, creating the file and header if needed.
func Append(projectRoot string, entries []Entry) error {
	dir := filepath.Join(projectRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(projectRoot)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening report log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <projectRoot>/logs/report-log.csv.
// Returns nil if the file does not exist.
func Read(projectRoot string) ([]Entry, error) {
	f, err := os.Open(Path(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening report log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading report log CSV: %w", err)
	}

	if len(records) <= 1 {
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

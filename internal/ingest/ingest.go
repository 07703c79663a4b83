package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fortneer/fluxo/internal/model"
	"github.com/fortneer/fluxo/internal/sheet"
)

// Source kinds. Each names an adapter and a subdirectory of import/.
const (
	KindReceivables = "receivables"
	KindPayables    = "payables"
	KindCashReport  = "cash-report"
)

// Source column headers.
const (
	ColValue       = "Valor"
	ColCashDate    = "Pagamento"
	ColAccrualDate = "Data"
	ColUnit        = "Unidade"
	ColAccount     = "Conta Analítica"
	ColReceipt     = "Entrada"
	ColReceiptDate = "Data"
)

// RowPolicy decides what happens to a row that fails to parse.
type RowPolicy string

const (
	// FailOnInvalid rejects the whole batch on the first bad row.
	FailOnInvalid RowPolicy = "fail"
	// SkipInvalid drops the row and logs a warning.
	SkipInvalid RowPolicy = "skip"
)

// ParseRowPolicy validates a policy name; empty means FailOnInvalid.
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch RowPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailOnInvalid:
		return FailOnInvalid, nil
	case SkipInvalid:
		return SkipInvalid, nil
	default:
		return "", fmt.Errorf("unknown row policy %q (want fail or skip)", s)
	}
}

// Options carries the defaults adapters apply to missing categorical fields.
type Options struct {
	DefaultUnit    string
	DefaultAccount string
	OnInvalidRow   RowPolicy
}

// SchemaError reports an input whose shape does not match what the adapter
// expects. Processing halts for that input.
type SchemaError struct {
	Source   string
	Reason   string
	Expected []string
	Rows     []int
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Reason)
	if len(e.Rows) > 0 {
		rows := make([]string, len(e.Rows))
		for i, r := range e.Rows {
			rows[i] = fmt.Sprint(r)
		}
		msg += " (rows " + strings.Join(rows, ", ") + ")"
	}
	if len(e.Expected) > 0 {
		msg += "; expected columns: " + strings.Join(e.Expected, ", ")
	}
	return msg
}

// RowError locates a field that failed to parse.
type RowError struct {
	Source string
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d, column %s: %v", e.Source, e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Adapter converts a loaded table into normalized records.
type Adapter interface {
	Adapt(t *sheet.Table) (model.RecordSet, error)
	Kind() string
}

// Registry holds adapters by kind.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Panics on duplicate kind.
func (r *Registry) Register(a Adapter) {
	key := strings.ToLower(a.Kind())
	if _, ok := r.adapters[key]; ok {
		panic("duplicate adapter kind: " + key)
	}
	r.adapters[key] = a
}

// Get returns the adapter for kind, or nil.
func (r *Registry) Get(kind string) Adapter {
	return r.adapters[strings.ToLower(kind)]
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultRegistry returns a registry with the receivables, payables and
// cash-report adapters.
func DefaultRegistry(opts Options, log zerolog.Logger) *Registry {
	r := NewRegistry()
	r.Register(NewNormalizer(model.RoleInflow, opts, log))
	r.Register(NewNormalizer(model.RoleOutflow, opts, log))
	r.Register(NewCashReportAdapter(opts, log))
	return r
}

// LoadFile reads path and runs it through the adapter for kind.
func (r *Registry) LoadFile(kind, path string, opts sheet.Options) (model.RecordSet, error) {
	a := r.Get(kind)
	if a == nil {
		return model.RecordSet{}, fmt.Errorf("no adapter for %q", kind)
	}
	tbl, err := sheet.Load(path, opts)
	if err != nil {
		return model.RecordSet{}, err
	}
	return a.Adapt(tbl)
}

// ImportDir is the project subdirectory holding input spreadsheets, one
// subdirectory per kind.
const ImportDir = "import"

// KindDir returns <projectRoot>/import/<kind>.
func KindDir(projectRoot, kind string) string {
	return filepath.Join(projectRoot, ImportDir, kind)
}

// FileInfo describes a spreadsheet in an import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns supported spreadsheets directly inside dir. A missing
// directory yields no files.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		if _, ok := sheet.FormatOf(e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortneer/fluxo/internal/cashflow"
	"github.com/fortneer/fluxo/internal/config"
	"github.com/fortneer/fluxo/internal/ingest"
	"github.com/fortneer/fluxo/internal/journal"
	"github.com/fortneer/fluxo/internal/logging"
	"github.com/fortneer/fluxo/internal/model"
	"github.com/fortneer/fluxo/internal/sheet"
)

// now is replaced in tests.
var now = time.Now

// project is a loaded fluxo project directory.
type project struct {
	root string
	cfg  *config.Config
	log  zerolog.Logger
}

// openProject loads the configuration of g.projectDir. With optional set, a
// directory without fluxo.yaml runs on defaults.
func openProject(g *globals, stderr io.Writer, optional bool) (*project, error) {
	root, err := filepath.Abs(g.projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.LoadProject(root)
	switch {
	case err == nil:
	case optional && errors.Is(err, fs.ErrNotExist):
		cfg = config.Default("")
		if err := config.ApplyEnv(cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("no %s in %s (run fluxo init first)", config.FileName, root)
	default:
		return nil, err
	}

	logCfg := logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if g.verbose {
		logCfg.Level = "debug"
	}
	return &project{root: root, cfg: cfg, log: logging.New(logCfg, stderr)}, nil
}

// path resolves p against the project root unless it is absolute.
func (p *project) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.root, rel)
}

func (p *project) sheetOptions() sheet.Options {
	return sheet.Options{Encoding: p.cfg.Ingest.CSVEncoding}
}

func (p *project) registry() *ingest.Registry {
	return ingest.DefaultRegistry(p.cfg.IngestOptions(), p.log)
}

// inputKinds is the load order of source kinds.
var inputKinds = []string{ingest.KindReceivables, ingest.KindCashReport, ingest.KindPayables}

func roleOf(kind string) model.Role {
	if kind == ingest.KindPayables {
		return model.RoleOutflow
	}
	return model.RoleInflow
}

// inputs are the record sets of one run, split by role.
type inputs struct {
	receivables []model.RecordSet
	payables    []model.RecordSet
}

func (in inputs) all() []model.RecordSet {
	return append(append([]model.RecordSet{}, in.receivables...), in.payables...)
}

func (in inputs) records() int {
	n := 0
	for _, s := range in.all() {
		n += len(s.Records)
	}
	return n
}

// loadInputs reads the files named per kind. When no file is named at all,
// the project's import directories are scanned.
func (p *project) loadInputs(files map[string][]string) (inputs, error) {
	explicit := false
	for _, paths := range files {
		if len(paths) > 0 {
			explicit = true
		}
	}
	if !explicit {
		files = make(map[string][]string)
		for _, kind := range inputKinds {
			found, err := ingest.Scan(ingest.KindDir(p.root, kind))
			if err != nil {
				return inputs{}, err
			}
			for _, f := range found {
				files[kind] = append(files[kind], f.Path)
			}
		}
	}

	reg := p.registry()
	var in inputs
	for _, kind := range inputKinds {
		for _, path := range files[kind] {
			set, err := p.loadFile(reg, kind, path)
			if err != nil {
				return inputs{}, err
			}
			if set.Role == model.RoleOutflow {
				in.payables = append(in.payables, set)
			} else {
				in.receivables = append(in.receivables, set)
			}
		}
	}
	return in, nil
}

func (p *project) loadFile(reg *ingest.Registry, kind, path string) (model.RecordSet, error) {
	path = p.path(path)

	var (
		set model.RecordSet
		err error
	)
	if journal.IsJournal(path) {
		set, err = journal.ReadFile(path, roleOf(kind))
	} else {
		set, err = reg.LoadFile(kind, path, p.sheetOptions())
	}
	if err != nil {
		return model.RecordSet{}, fmt.Errorf("loading %s: %w", kind, err)
	}

	p.log.Info().
		Str("kind", kind).
		Str("file", filepath.Base(path)).
		Int("records", len(set.Records)).
		Int("skipped", set.Skipped).
		Msg("loaded input")
	return set, nil
}

var cliDateLayouts = []string{"2/1/2006", "2006-01-02"}

// parseCLIDate accepts dd/mm/yyyy or yyyy-mm-dd.
func parseCLIDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range cliDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want dd/mm/yyyy or yyyy-mm-dd)", s)
}

// unitAliases name the all-units selection on the command line.
var unitAliases = []string{"all", "todas"}

// resolveUnit maps a --unit value to a unit or cashflow.AllUnits. An alias
// only means all units when no known unit carries that exact name.
func resolveUnit(s string, known []string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == cashflow.AllUnits {
		return cashflow.AllUnits
	}
	for _, u := range known {
		if u == s {
			return s
		}
	}
	for _, alias := range unitAliases {
		if strings.EqualFold(s, alias) {
			return cashflow.AllUnits
		}
	}
	return s
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

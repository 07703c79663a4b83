package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fortneer/fluxo/internal/balances"
	"github.com/fortneer/fluxo/internal/cashflow"
	"github.com/fortneer/fluxo/internal/gitops"
	"github.com/fortneer/fluxo/internal/ingest"
	"github.com/fortneer/fluxo/internal/model"
	"github.com/fortneer/fluxo/internal/report"
	"github.com/fortneer/fluxo/internal/runlog"
)

type reportFlags struct {
	from, to        string
	regime          string
	unit            string
	receivables     []string
	payables        []string
	cashReports     []string
	format          string
	pdf, xlsx       bool
	scopeCategories bool
	commit          bool
}

func newReportCommand(g *globals) *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the daily cash-flow report for a date range",
		Long: `Build the daily cash-flow report for a date range.

Without --receivables, --payables or --cash-report the spreadsheets under
import/receivables, import/cash-report and import/payables are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(g, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("commit") {
				f.commit = p.cfg.Git.AutoCommit
			}
			return runReport(cmd.OutOrStdout(), p, f)
		},
	}

	cmd.Flags().StringVar(&f.from, "from", "", "first day, dd/mm/yyyy (required)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, dd/mm/yyyy (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&f.regime, "regime", "", "cash or accrual (default from fluxo.yaml)")
	cmd.Flags().StringVar(&f.unit, "unit", "", "unit identifier; empty, \"all\" or \"todas\" select every unit")
	cmd.Flags().StringArrayVar(&f.receivables, "receivables", nil, "receivables spreadsheet or journal; repeatable")
	cmd.Flags().StringArrayVar(&f.payables, "payables", nil, "payables spreadsheet or journal; repeatable")
	cmd.Flags().StringArrayVar(&f.cashReports, "cash-report", nil, "cash-receipt report; repeatable")
	cmd.Flags().StringVar(&f.format, "format", "text", "stdout format: text or json")
	cmd.Flags().BoolVar(&f.pdf, "pdf", false, "export a PDF report")
	cmd.Flags().BoolVar(&f.xlsx, "xlsx", false, "export an .xlsx workbook")
	cmd.Flags().BoolVar(&f.scopeCategories, "scope-categories", false, "restrict per-account totals to the date range")
	cmd.Flags().BoolVar(&f.commit, "commit", false, "commit exports to git (default from fluxo.yaml)")

	return cmd
}

func runReport(out io.Writer, p *project, f reportFlags) error {
	if f.format != "text" && f.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", f.format)
	}

	params, err := reportParams(p, f)
	if err != nil {
		return err
	}

	in, err := p.loadInputs(map[string][]string{
		ingest.KindReceivables: f.receivables,
		ingest.KindPayables:    f.payables,
		ingest.KindCashReport:  f.cashReports,
	})
	if err != nil {
		return err
	}

	params.Balances, err = balances.Load(p.root)
	if err != nil {
		return err
	}
	params.Unit = resolveUnit(f.unit, append(cashflow.Units(in.all()...), params.Balances.Units()...))

	rep, err := cashflow.Build(in.receivables, in.payables, params)
	if err != nil {
		return err
	}

	opts := report.Options{
		Business:       p.cfg.Business.Name,
		CurrencyPrefix: p.cfg.Report.CurrencyPrefix,
		Generated:      now(),
	}

	if f.format == "json" {
		err = report.WriteJSON(out, rep)
	} else {
		err = report.WriteText(out, rep, opts)
	}
	if err != nil {
		return err
	}

	outputs, err := exportReport(p, rep, opts, f)
	if err != nil {
		return err
	}
	for _, o := range outputs {
		p.log.Info().Str("file", o).Msg("exported report")
	}

	entry := runlog.Entry{
		RunID:     runlog.NewRunID(),
		Timestamp: opts.Generated,
		Unit:      rep.Unit,
		Regime:    string(rep.Regime),
		From:      rep.Range.Start,
		To:        rep.Range.End,
		Records:   in.records(),
		Outputs:   outputs,
	}

	if f.commit && len(outputs) > 0 {
		entry.CommitHash, err = commitExports(p, rep, outputs)
		if err != nil {
			return err
		}
	}

	if err := runlog.Append(p.root, []runlog.Entry{entry}); err != nil {
		p.log.Warn().Err(err).Msg("failed to write report log")
	}
	return nil
}

func reportParams(p *project, f reportFlags) (cashflow.Params, error) {
	from, err := parseCLIDate(f.from)
	if err != nil {
		return cashflow.Params{}, fmt.Errorf("--from: %w", err)
	}
	to, err := parseCLIDate(f.to)
	if err != nil {
		return cashflow.Params{}, fmt.Errorf("--to: %w", err)
	}
	rng, err := cashflow.NewDateRange(from, to)
	if err != nil {
		return cashflow.Params{}, err
	}

	regimeName := f.regime
	if regimeName == "" {
		regimeName = p.cfg.Report.Regime
	}
	regime, err := model.ParseRegime(regimeName)
	if err != nil {
		return cashflow.Params{}, err
	}

	return cashflow.Params{
		Range:                  rng,
		Regime:                 regime,
		ScopeCategoriesToRange: f.scopeCategories,
	}, nil
}

// exportReport writes the requested files and returns their project-relative paths.
func exportReport(p *project, rep *cashflow.Report, opts report.Options, f reportFlags) ([]string, error) {
	type export struct {
		enabled bool
		ext     string
		write   func(io.Writer) error
	}
	exports := []export{
		{f.pdf, "pdf", func(w io.Writer) error { return report.WritePDF(w, rep, opts) }},
		{f.xlsx, "xlsx", func(w io.Writer) error { return report.WriteWorkbook(w, rep, opts) }},
	}

	var outputs []string
	for _, e := range exports {
		if !e.enabled {
			continue
		}
		dir := p.path(p.cfg.Report.ExportDir)
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, report.FileName(rep, e.ext))
		if err := writeFile(path, e.write); err != nil {
			return nil, err
		}
		outputs = append(outputs, relPath(p.root, path))
	}
	return outputs, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func commitExports(p *project, rep *cashflow.Report, outputs []string) (string, error) {
	repo := gitops.Open(p.root, gitops.Author{Name: p.cfg.Git.AuthorName, Email: p.cfg.Git.AuthorEmail})
	if !repo.IsRepo() {
		p.log.Warn().Str("dir", p.root).Msg("not a git repository, skipping commit")
		return "", nil
	}

	paths := append([]string{}, outputs...)
	if _, err := os.Stat(runlog.Path(p.root)); err == nil {
		paths = append(paths, relPath(p.root, runlog.Path(p.root)))
	}
	msg := fmt.Sprintf("report: %s %s %s", report.UnitLabel(rep.Unit), rep.Regime, rep.Range)
	hash, err := repo.Commit(msg, paths...)
	if err != nil {
		return "", fmt.Errorf("committing exports: %w", err)
	}
	return hash, nil
}

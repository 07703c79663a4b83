package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortneer/fluxo/internal/balances"
	"github.com/fortneer/fluxo/internal/cashflow"
	"github.com/fortneer/fluxo/internal/config"
	"github.com/fortneer/fluxo/internal/ingest"
	"github.com/fortneer/fluxo/internal/journal"
	"github.com/fortneer/fluxo/internal/runlog"
)

func runFluxo(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func fixedNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2024, 1, 11, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func testdata(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return path
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

// newProject initializes a project with units Centro and Norte and the sample
// sheets placed in the import directories.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir, "--name", "Escola Modelo", "--unit", "Centro", "--unit", "Norte")
	require.NoError(t, err)

	copyFile(t, testdata(t, "receivables.csv"), filepath.Join(ingest.KindDir(dir, ingest.KindReceivables), "receivables.csv"))
	copyFile(t, testdata(t, "payables.csv"), filepath.Join(ingest.KindDir(dir, ingest.KindPayables), "payables.csv"))
	copyFile(t, testdata(t, "cash_report.csv"), filepath.Join(ingest.KindDir(dir, ingest.KindCashReport), "cash_report.csv"))
	return dir
}

// fieldsOf returns the whitespace-split fields of the first output line
// starting with prefix.
func fieldsOf(out, prefix string) []string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.Fields(line)
		}
	}
	return nil
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runFluxo(t, "init", dir, "--name", "Escola Modelo", "--unit", "Centro")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized fluxo project at "+dir)

	expectedDirs := []string{
		"exports",
		"logs",
		filepath.Join("import", "receivables"),
		filepath.Join("import", "payables"),
		filepath.Join("import", "cash-report"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir, "--name", "Escola Modelo", "--unit", "Centro", "--unit", "Norte")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Escola Modelo", cfg.Business.Name)
	assert.Equal(t, "Centro", cfg.Ingest.DefaultUnit)
	assert.False(t, cfg.Git.AutoCommit)
}

func TestInit_Balances(t *testing.T) {
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir, "--name", "Escola Modelo", "--unit", "Centro", "--unit", "Norte")
	require.NoError(t, err)

	book, err := balances.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Centro", "Norte"}, book.Units())
	assert.True(t, book.Total().IsZero())
}

func TestInit_AlreadyInitialized(t *testing.T) {
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir, "--name", "A")
	require.NoError(t, err)

	_, err = runFluxo(t, "init", dir, "--name", "B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestReport_Text(t *testing.T) {
	fixedNow(t)
	dir := newProject(t)
	_, err := runFluxo(t, "-C", dir, "balances", "set", "Centro", "1.000,00")
	require.NoError(t, err)

	out, err := runFluxo(t, "-C", dir, "report", "--from", "01/01/2024", "--to", "10/01/2024", "--unit", "Centro", "--regime", "cash")
	require.NoError(t, err)

	assert.Contains(t, out, "Relatório Financeiro - Unidade: Centro - Regime: Caixa")
	assert.Contains(t, out, "Período: 01/01/2024 - 10/01/2024")
	assert.Contains(t, out, "Saldo inicial: R$ 1.000,00")
	assert.Contains(t, out, "Total de recebimentos: R$ 2.500,00")
	assert.Contains(t, out, "Total de pagamentos: R$ 400,00")
	assert.Contains(t, out, "Saldo final: R$ 3.100,00")
	assert.Contains(t, out, "Outros")
	assert.NotContains(t, out, "Resultado por Unidade")

	// The run is logged even without exports.
	entries, err := runlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Centro", entries[0].Unit)
	assert.Equal(t, 7, entries[0].Records)
	assert.Empty(t, entries[0].Outputs)
}

func TestReport_JSON(t *testing.T) {
	fixedNow(t)
	dir := newProject(t)

	out, err := runFluxo(t, "-C", dir, "report", "--from", "2024-01-01", "--to", "2024-01-10", "--format", "json")
	require.NoError(t, err)

	var got struct {
		Unit           string `json:"unit"`
		Regime         string `json:"regime"`
		ClosingBalance string `json:"closing_balance"`
		Days           []struct {
			Date string `json:"date"`
		} `json:"days"`
		UnitBreakdown []struct {
			Unit string `json:"unit"`
		} `json:"unit_breakdown"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, cashflow.AllUnits, got.Unit)
	assert.Equal(t, "cash", got.Regime)
	// Centro 2500 - 400 plus Norte 2000, zero opening balances.
	assert.Equal(t, "4100.00", got.ClosingBalance)
	require.Len(t, got.Days, 10)
	assert.Equal(t, "2024-01-01", got.Days[0].Date)
	require.Len(t, got.UnitBreakdown, 2)
}

func TestReport_Exports(t *testing.T) {
	fixedNow(t)
	dir := newProject(t)

	_, err := runFluxo(t, "-C", dir, "report", "--from", "01/01/2024", "--to", "10/01/2024", "--unit", "Centro", "--pdf", "--xlsx")
	require.NoError(t, err)

	for _, name := range []string{
		"relatorio-centro-cash-20240101-20240110.pdf",
		"relatorio-centro-cash-20240101-20240110.xlsx",
	} {
		info, err := os.Stat(filepath.Join(dir, "exports", name))
		require.NoError(t, err, "%s should exist", name)
		assert.Positive(t, info.Size())
	}

	entries, err := runlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{
		"exports/relatorio-centro-cash-20240101-20240110.pdf",
		"exports/relatorio-centro-cash-20240101-20240110.xlsx",
	}, entries[0].Outputs)
	assert.Empty(t, entries[0].CommitHash)

	out, err := runFluxo(t, "-C", dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, entries[0].RunID)
	assert.Contains(t, out, "2024-01-01..2024-01-10")
}

func TestReport_MissingDateColumn(t *testing.T) {
	dir := newProject(t)
	noCash := filepath.Join(t.TempDir(), "receivables.csv")
	require.NoError(t, os.WriteFile(noCash, []byte("Valor;Data;Unidade\n\"R$ 10,00\";02/01/2024;Centro\n"), 0o644))

	_, err := runFluxo(t, "-C", dir, "report", "--from", "01/01/2024", "--to", "10/01/2024", "--receivables", noCash)
	require.Error(t, err)

	var mce *cashflow.MissingColumnError
	require.True(t, errors.As(err, &mce))

	// The accrual regime reads Data, which the file has.
	_, err = runFluxo(t, "-C", dir, "report", "--from", "01/01/2024", "--to", "10/01/2024", "--receivables", noCash, "--regime", "accrual")
	require.NoError(t, err)
}

func TestReport_Errors(t *testing.T) {
	dir := newProject(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad from", []string{"--from", "31/02/2024", "--to", "10/01/2024"}, "--from"},
		{"reversed range", []string{"--from", "10/01/2024", "--to", "01/01/2024"}, "is after end"},
		{"bad regime", []string{"--from", "01/01/2024", "--to", "10/01/2024", "--regime", "weekly"}, "weekly"},
		{"bad format", []string{"--from", "01/01/2024", "--to", "10/01/2024", "--format", "html"}, "unknown format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runFluxo(t, append([]string{"-C", dir, "report"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReport_NoProject(t *testing.T) {
	_, err := runFluxo(t, "-C", t.TempDir(), "report", "--from", "01/01/2024", "--to", "10/01/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run fluxo init first")
}

func TestResolveUnit(t *testing.T) {
	tests := []struct {
		in    string
		known []string
		want  string
	}{
		{"", []string{"Centro"}, cashflow.AllUnits},
		{"*", []string{"Centro"}, cashflow.AllUnits},
		{"all", []string{"Centro"}, cashflow.AllUnits},
		{"Todas", []string{"Centro"}, cashflow.AllUnits},
		{" Centro ", []string{"Centro"}, "Centro"},
		{"all", []string{"Centro", "all"}, "all"},
		{"Todas", []string{"Todas"}, "Todas"},
		{"Sul", nil, "Sul"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveUnit(tt.in, tt.known), "resolveUnit(%q, %v)", tt.in, tt.known)
	}
}

func TestReport_UnitNamedLikeAlias(t *testing.T) {
	dir := newProject(t)
	_, err := runFluxo(t, "-C", dir, "balances", "set", "Todas", "50,00")
	require.NoError(t, err)

	out, err := runFluxo(t, "-C", dir, "report", "--from", "01/01/2024", "--to", "10/01/2024", "--unit", "Todas", "--format", "json")
	require.NoError(t, err)

	var got struct {
		Unit           string `json:"unit"`
		ClosingBalance string `json:"closing_balance"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Todas", got.Unit)
	assert.Equal(t, "50.00", got.ClosingBalance)
}

func TestNormalize_Stdout(t *testing.T) {
	out, err := runFluxo(t, "-C", t.TempDir(), "normalize", testdata(t, "receivables.csv"), "--kind", "receivables")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, journal.Prefix))
	set, err := journal.Read(strings.NewReader(out), "stdout", roleOf(ingest.KindReceivables))
	require.NoError(t, err)
	assert.Len(t, set.Records, 3)
}

func TestNormalize_Check(t *testing.T) {
	out, err := runFluxo(t, "-C", t.TempDir(), "normalize", testdata(t, "payables.csv"), "--kind", "payables", "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "2 records, 0 skipped")
}

func TestNormalize_UnknownKind(t *testing.T) {
	_, err := runFluxo(t, "-C", t.TempDir(), "normalize", testdata(t, "payables.csv"), "--kind", "invoices")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestNormalize_JournalRoundTrip(t *testing.T) {
	dir := newProject(t)
	journalPath := filepath.Join(t.TempDir(), "receivables-journal.csv")

	out, err := runFluxo(t, "-C", dir, "normalize", testdata(t, "receivables.csv"), "--kind", "receivables", "-o", journalPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 records to "+journalPath)

	args := []string{"-C", dir, "report", "--from", "01/01/2024", "--to", "10/01/2024", "--unit", "Centro", "--regime", "accrual", "--format", "json", "--payables", testdata(t, "payables.csv")}
	fromSheet, err := runFluxo(t, append(args, "--receivables", testdata(t, "receivables.csv"))...)
	require.NoError(t, err)
	fromJournal, err := runFluxo(t, append(args, "--receivables", journalPath)...)
	require.NoError(t, err)

	assert.JSONEq(t, fromSheet, fromJournal)
}

func TestUnits(t *testing.T) {
	dir := newProject(t)

	out, err := runFluxo(t, "-C", dir, "units")
	require.NoError(t, err)

	assert.Equal(t, []string{"Centro", "R$", "0,00", "5"}, fieldsOf(out, "Centro"))
	assert.Equal(t, []string{"Norte", "R$", "0,00", "2"}, fieldsOf(out, "Norte"))
	assert.Equal(t, []string{"Todas", "R$", "0,00", "7"}, fieldsOf(out, "Todas"))
}

func TestBalances_SetAndList(t *testing.T) {
	dir := newProject(t)

	out, err := runFluxo(t, "-C", dir, "balances", "set", "Centro", "1.500,00")
	require.NoError(t, err)
	assert.Equal(t, "Centro: R$ 1.500,00\n", out)

	_, err = runFluxo(t, "-C", dir, "balances", "set", "--", "Sul", "-200")
	require.NoError(t, err)

	out, err = runFluxo(t, "-C", dir, "balances", "list")
	require.NoError(t, err)
	assert.Equal(t, []string{"Centro", "R$", "1.500,00"}, fieldsOf(out, "Centro"))
	assert.Equal(t, []string{"Sul", "R$", "-200,00"}, fieldsOf(out, "Sul"))
	assert.Equal(t, []string{"Total", "R$", "1.300,00"}, fieldsOf(out, "Total"))
}

func TestBalances_SetInvalidAmount(t *testing.T) {
	dir := newProject(t)
	_, err := runFluxo(t, "-C", dir, "balances", "set", "Centro", "muito")
	require.Error(t, err)
}

func TestHistory_Empty(t *testing.T) {
	dir := newProject(t)
	out, err := runFluxo(t, "-C", dir, "history")
	require.NoError(t, err)
	assert.Equal(t, "No reports generated yet.\n", out)
}

func TestBalances_SetCustomCurrencyPrefix(t *testing.T) {
	dir := newProject(t)
	t.Setenv("FLUXO_REPORT_CURRENCY_PREFIX", "US$")

	out, err := runFluxo(t, "-C", dir, "balances", "set", "Centro", "US$ 12,50")
	require.NoError(t, err)
	assert.Equal(t, "Centro: US$ 12,50\n", out)

	book, err := balances.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "12.50", book.Get("Centro").StringFixed(2))
}

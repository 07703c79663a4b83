package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/fortneer/fluxo/internal/cashflow"
)

// Workbook sheet names.
const (
	SheetDaily   = "Fluxo de Caixa"
	SheetInflow  = "Recebimentos por Conta"
	SheetOutflow = "Pagamentos por Conta"
)

type styles struct {
	header, date, currency int
}

// WriteWorkbook renders r as an .xlsx workbook with one sheet for the
// daily ledger and one per category list.
func WriteWorkbook(w io.Writer, r *cashflow.Report, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f, opts)
	if err != nil {
		return err
	}

	if err := f.SetSheetName(f.GetSheetName(0), SheetDaily); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := writeDaily(f, r, st); err != nil {
		return err
	}
	if err := writeCategories(f, SheetInflow, r.InflowByAccount, st); err != nil {
		return err
	}
	if err := writeCategories(f, SheetOutflow, r.OutflowByAccount, st); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File, opts Options) (styles, error) {
	var st styles
	var err error

	if st.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return st, fmt.Errorf("creating header style: %w", err)
	}
	dateFmt := "dd/mm/yyyy"
	if st.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt}); err != nil {
		return st, fmt.Errorf("creating date style: %w", err)
	}
	currencyFmt := "#,##0.00"
	if opts.CurrencyPrefix != "" {
		currencyFmt = fmt.Sprintf(`"%s "#,##0.00`, opts.CurrencyPrefix)
	}
	if st.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt}); err != nil {
		return st, fmt.Errorf("creating currency style: %w", err)
	}
	return st, nil
}

func writeDaily(f *excelize.File, r *cashflow.Report, st styles) error {
	header := []any{"Data", "Recebimentos", "Pagamentos", "Saldo do Dia", "Saldo Acumulado"}
	if err := f.SetSheetRow(SheetDaily, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", SheetDaily, err)
	}

	for i, d := range r.Days {
		row := []any{
			d.Date,
			d.Inflow.InexactFloat64(),
			d.Outflow.InexactFloat64(),
			d.NetChange.InexactFloat64(),
			d.RunningBalance.InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetDaily, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", SheetDaily, i+2, err)
		}
	}

	last := len(r.Days) + 1
	return applyStyles(f, SheetDaily, []styleRange{
		{"A1", "E1", st.header},
		{"A2", fmt.Sprintf("A%d", last), st.date},
		{"B2", fmt.Sprintf("E%d", last), st.currency},
	}, "A", "E")
}

func writeCategories(f *excelize.File, sheet string, totals []cashflow.CategoryTotal, st styles) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	header := []any{"Conta Analítica", "Total"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	for i, ct := range totals {
		row := []any{ct.Account, ct.Total.InexactFloat64()}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}

	ranges := []styleRange{{"A1", "B1", st.header}}
	if len(totals) > 0 {
		ranges = append(ranges, styleRange{"B2", fmt.Sprintf("B%d", len(totals)+1), st.currency})
	}
	return applyStyles(f, sheet, ranges, "A", "B")
}

type styleRange struct {
	from, to string
	style    int
}

func applyStyles(f *excelize.File, sheet string, ranges []styleRange, firstCol, lastCol string) error {
	for _, sr := range ranges {
		if err := f.SetCellStyle(sheet, sr.from, sr.to, sr.style); err != nil {
			return fmt.Errorf("styling %s!%s:%s: %w", sheet, sr.from, sr.to, err)
		}
	}
	if err := f.SetColWidth(sheet, firstCol, lastCol, 20); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	return nil
}

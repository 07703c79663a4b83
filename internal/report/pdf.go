package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/fortneer/fluxo/internal/cashflow"
)

var dailyColumns = []struct {
	title string
	width float64
	align string
}{
	{"Data", 35, "C"},
	{"Recebimentos", 50, "R"},
	{"Pagamentos", 50, "R"},
	{"Saldo Acumulado", 55, "R"},
}

const rowHeight = 6.0

// WritePDF renders r as an A4 document.
func WritePDF(w io.Writer, r *cashflow.Report, opts Options) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(Title(r)), false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 8, tr(Title(r)), "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	if opts.Business != "" {
		pdf.CellFormat(0, 6, tr(opts.Business), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, tr("Período: "+r.Range.String()), "", 1, "L", false, 0, "")
	if !opts.Generated.IsZero() {
		pdf.CellFormat(0, 6, tr("Gerado em: "+opts.Generated.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, tr("Resumo"))
	for _, l := range summary(r, opts) {
		pdf.CellFormat(70, rowHeight, tr(l.label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, rowHeight, tr(l.value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, tr("Fluxo diário"))
	dailyHeader(pdf, tr)
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for i, d := range r.Days {
		if pdf.GetY()+rowHeight > pageH-bottom {
			pdf.AddPage()
			dailyHeader(pdf, tr)
		}
		fill := i%2 == 1
		cells := []string{
			d.Date.Format(dateLayout),
			opts.money(d.Inflow),
			opts.money(d.Outflow),
			opts.money(d.RunningBalance),
		}
		for j, c := range cells {
			col := dailyColumns[j]
			pdf.CellFormat(col.width, rowHeight, tr(c), "1", 0, col.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	categories(pdf, tr, "Recebimentos por Conta", r.InflowByAccount, opts)
	categories(pdf, tr, "Pagamentos por Conta", r.OutflowByAccount, opts)

	if len(r.UnitBreakdown) > 0 {
		section(pdf, tr("Resultado por Unidade"))
		for _, ut := range r.UnitBreakdown {
			line := fmt.Sprintf("%s: recebimentos %s, pagamentos %s, resultado %s",
				ut.Unit, opts.money(ut.Inflow), opts.money(ut.Outflow), opts.money(ut.Net))
			pdf.MultiCell(0, rowHeight, tr(line), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func dailyHeader(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(220, 220, 220)
	for _, col := range dailyColumns {
		pdf.CellFormat(col.width, rowHeight+1, tr(col.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetFillColor(245, 245, 245)
}

func categories(pdf *fpdf.Fpdf, tr func(string) string, title string, totals []cashflow.CategoryTotal, opts Options) {
	section(pdf, tr(title))
	if len(totals) == 0 {
		pdf.CellFormat(0, rowHeight, tr("Sem lançamentos"), "", 1, "L", false, 0, "")
	}
	for _, ct := range totals {
		pdf.CellFormat(110, rowHeight, tr(ct.Account), "", 0, "L", false, 0, "")
		pdf.CellFormat(50, rowHeight, tr(opts.money(ct.Total)), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

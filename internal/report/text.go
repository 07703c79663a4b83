package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fortneer/fluxo/internal/cashflow"
)

// WriteText renders r as aligned plain-text tables.
func WriteText(w io.Writer, r *cashflow.Report, opts Options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(w, Title(r))
	fmt.Fprintf(w, "Período: %s\n\n", r.Range)

	fmt.Fprintln(tw, "Data\tRecebimentos\tPagamentos\tSaldo do Dia\tSaldo Acumulado\t")
	for _, d := range r.Days {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			d.Date.Format(dateLayout),
			opts.money(d.Inflow),
			opts.money(d.Outflow),
			opts.money(d.NetChange),
			opts.money(d.RunningBalance))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing daily table: %w", err)
	}

	fmt.Fprintln(w)
	for _, l := range summary(r, opts) {
		fmt.Fprintf(w, "%s: %s\n", l.label, l.value)
	}

	if err := writeTotals(w, "Recebimentos por Conta", r.InflowByAccount, opts); err != nil {
		return err
	}
	if err := writeTotals(w, "Pagamentos por Conta", r.OutflowByAccount, opts); err != nil {
		return err
	}

	if len(r.UnitBreakdown) > 0 {
		fmt.Fprintln(w, "\nResultado por Unidade")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Unidade\tRecebimentos\tPagamentos\tResultado")
		for _, ut := range r.UnitBreakdown {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ut.Unit, opts.money(ut.Inflow), opts.money(ut.Outflow), opts.money(ut.Net))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("writing unit table: %w", err)
		}
	}
	return nil
}

func writeTotals(w io.Writer, title string, totals []cashflow.CategoryTotal, opts Options) error {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(totals) == 0 {
		fmt.Fprintln(w, "  (sem lançamentos)")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, ct := range totals {
		fmt.Fprintf(tw, "  %s\t%s\n", ct.Account, opts.money(ct.Total))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", title, err)
	}
	return nil
}

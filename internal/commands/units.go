package commands

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fortneer/fluxo/internal/balances"
	"github.com/fortneer/fluxo/internal/cashflow"
	"github.com/fortneer/fluxo/internal/money"
	"github.com/fortneer/fluxo/internal/report"
)

func newUnitsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List units found in the project inputs and their opening balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(g, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			return runUnits(cmd.OutOrStdout(), p)
		},
	}
}

func runUnits(out io.Writer, p *project) error {
	in, err := p.loadInputs(nil)
	if err != nil {
		return err
	}
	book, err := balances.Load(p.root)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, s := range in.all() {
		for _, t := range s.Records {
			counts[t.Unit]++
		}
	}

	units := cashflow.Units(in.all()...)
	for _, u := range book.Units() {
		if _, ok := counts[u]; !ok {
			units = append(units, u)
		}
	}
	sort.Strings(units)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIDADE\tSALDO INICIAL\tREGISTROS")
	for _, u := range units {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", u, money.FormatWith(p.cfg.Report.CurrencyPrefix, book.Get(u)), counts[u])
	}
	fmt.Fprintf(tw, "%s\t%s\t%d\n", report.UnitLabel(cashflow.AllUnits), money.FormatWith(p.cfg.Report.CurrencyPrefix, book.Total()), in.records())
	return tw.Flush()
}

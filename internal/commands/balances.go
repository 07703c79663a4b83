package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fortneer/fluxo/internal/balances"
	"github.com/fortneer/fluxo/internal/money"
)

func newBalancesCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Manage per-unit opening balances",
	}
	cmd.AddCommand(newBalancesSetCommand(g), newBalancesListCommand(g))
	return cmd
}

func newBalancesSetCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "set UNIT AMOUNT",
		Short: "Set the opening balance of a unit (AMOUNT like 1.234,56)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(g, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			return runBalancesSet(cmd.OutOrStdout(), p, args[0], args[1])
		},
	}
}

func newBalancesListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List opening balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(g, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			return runBalancesList(cmd.OutOrStdout(), p)
		},
	}
}

func runBalancesSet(out io.Writer, p *project, unit, amount string) error {
	bal, err := money.ParseWith(p.cfg.Report.CurrencyPrefix, amount)
	if err != nil {
		return err
	}

	book, err := balances.Load(p.root)
	if err != nil {
		return err
	}
	book.Set(unit, bal)
	if err := book.Save(p.root); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %s\n", unit, money.FormatWith(p.cfg.Report.CurrencyPrefix, bal))
	return nil
}

func runBalancesList(out io.Writer, p *project) error {
	book, err := balances.Load(p.root)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIDADE\tSALDO INICIAL")
	for _, e := range book.Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Unit, money.FormatWith(p.cfg.Report.CurrencyPrefix, e.Balance))
	}
	fmt.Fprintf(tw, "Total\t%s\n", money.FormatWith(p.cfg.Report.CurrencyPrefix, book.Total()))
	return tw.Flush()
}

package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fortneer/fluxo/internal/report"
	"github.com/fortneer/fluxo/internal/runlog"
)

func newHistoryCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show previously generated reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(g, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			return runHistory(cmd.OutOrStdout(), p)
		},
	}
}

func runHistory(out io.Writer, p *project) error {
	entries, err := runlog.Read(p.root)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No reports generated yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tUNIT\tREGIME\tPERIOD\tRECORDS\tOUTPUTS\tCOMMIT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s..%s\t%d\t%s\t%s\n",
			e.RunID,
			e.Timestamp.Format("2006-01-02 15:04"),
			report.UnitLabel(e.Unit),
			e.Regime,
			e.From.Format("2006-01-02"),
			e.To.Format("2006-01-02"),
			e.Records,
			strings.Join(e.Outputs, " "),
			e.CommitHash)
	}
	return tw.Flush()
}

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fortneer/fluxo/internal/journal"
)

func newNormalizeCommand(g *globals) *cobra.Command {
	var kind, output string
	var check bool

	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Convert a spreadsheet into a canonical journal CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(g, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			return runNormalize(cmd.OutOrStdout(), p, kind, args[0], output, check)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "receivables, payables or cash-report (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the journal here instead of stdout")
	cmd.Flags().BoolVar(&check, "check", false, "only report suspicious records")

	return cmd
}

func runNormalize(out io.Writer, p *project, kind, file, output string, check bool) error {
	reg := p.registry()
	if reg.Get(kind) == nil {
		return fmt.Errorf("unknown kind %q (want %s)", kind, strings.Join(reg.Kinds(), ", "))
	}

	set, err := p.loadFile(reg, kind, file)
	if err != nil {
		return err
	}

	if check {
		warns := journal.Check(set)
		for _, w := range warns {
			fmt.Fprintln(out, w)
		}
		fmt.Fprintf(out, "%d records, %d skipped, %d warnings\n", len(set.Records), set.Skipped, len(warns))
		return nil
	}

	if output == "" {
		return journal.Write(out, set)
	}
	if err := journal.WriteFile(output, set); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d records to %s\n", len(set.Records), output)
	return nil
}

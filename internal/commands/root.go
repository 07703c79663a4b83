package commands

import (
	"github.com/spf13/cobra"

	"github.com/fortneer/fluxo/internal/buildinfo"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	projectDir string
	verbose    bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "fluxo",
		Short:   "Daily cash-flow reports from receivable and payable spreadsheets",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.projectDir, "project", "C", ".", "project directory")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newInitCommand(),
		newReportCommand(g),
		newNormalizeCommand(g),
		newUnitsCommand(g),
		newBalancesCommand(g),
		newHistoryCommand(g),
	)

	return rootCmd
}

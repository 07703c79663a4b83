package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fortneer/fluxo/internal/balances"
	"github.com/fortneer/fluxo/internal/config"
	"github.com/fortneer/fluxo/internal/gitops"
	"github.com/fortneer/fluxo/internal/ingest"
)

func newInitCommand() *cobra.Command {
	var name string
	var units []string
	var git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new fluxo project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, name, units, git)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringArrayVar(&units, "unit", nil, "unit identifier; repeatable, the first is the default unit")
	cmd.Flags().BoolVar(&git, "git", false, "initialize a git repository and commit the project")

	return cmd
}

func runInit(out io.Writer, dir, name string, units []string, git bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	// Create directory structure.
	dirs := []string{"exports", "logs"}
	for _, kind := range inputKinds {
		dirs = append(dirs, filepath.Join(ingest.ImportDir, kind))
	}
	for _, d := range dirs {
		if err := ensureDir(filepath.Join(dir, d)); err != nil {
			return err
		}
	}

	cfg := config.Default(name)
	if len(units) > 0 {
		cfg.Ingest.DefaultUnit = units[0]
	}
	cfg.Git.AutoCommit = git
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	book := balances.NewBook(nil)
	for _, u := range units {
		book.Set(u, decimal.Zero)
	}
	if err := book.Save(dir); err != nil {
		return fmt.Errorf("writing opening balances: %w", err)
	}

	for _, kind := range inputKinds {
		keep := filepath.Join(dir, ingest.ImportDir, kind, ".gitkeep")
		if err := os.WriteFile(keep, []byte{}, 0o644); err != nil {
			return fmt.Errorf("writing .gitkeep: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(config.EnvFile+"\n~$*\n"), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if !git {
		fmt.Fprintf(out, "Initialized fluxo project at %s\n", dir)
		return nil
	}

	repo := gitops.Open(dir, gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail})
	if err := repo.Init(); err != nil {
		return err
	}
	hash, err := repo.Commit("init: Initialize " + name)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized fluxo project at %s (%s)\n", dir, hash)
	return nil
}

package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmt2tally/internal/config"
)

func newInitCommand() *cobra.Command {
	var company, bank, contra string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default config and import directory",
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

			if err := runInit(absDir, company, bank, contra, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized stmt2tally in %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "Tally company name")
	cmd.Flags().StringVar(&bank, "bank", "", "bank ledger name")
	cmd.Flags().StringVar(&contra, "ledger", "", "contra ledger name")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	return cmd
}

func runInit(dir, company, bank, contra string, force bool) error {
	for _, d := range []string{"import", filepath.Join("import", "processed"), "exports"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default()
	if company != "" {
		cfg.Company.Name = company
	}
	cfg.Ledgers.Bank = bank
	cfg.Ledgers.Contra = contra

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmt2tally/internal/buildinfo"
	"github.com/cleared-dev/stmt2tally/internal/config"
	"github.com/cleared-dev/stmt2tally/internal/logging"
)

// app carries state resolved once in PersistentPreRunE for every subcommand.
type app struct {
	cfgPath  string
	logLevel string
	cfg      *config.Config
	log      *logrus.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "stmt2tally",
		Short:   "Convert bank statement PDFs into Tally voucher imports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newConvertCommand(a))
	rootCmd.AddCommand(newParseCommand(a))
	rootCmd.AddCommand(newServeCommand(a))

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Resolve(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// Package cmd implements the licor command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/licor/internal/config"
	"github.com/JonMunkholm/licor/internal/core"
	"github.com/JonMunkholm/licor/internal/dictionary"
	"github.com/JonMunkholm/licor/internal/logging"
)

// ErrFailures is returned when a command has already reported its failures
// and only needs to set a non-zero exit status.
var ErrFailures = errors.New("one or more files failed")

// app is the state shared by every subcommand.
type app struct {
	cfg      *config.Config
	dictPath string
	verbose  bool
	out      io.Writer
	errOut   io.Writer
}

// NewRootCmd builds the licor command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "licor",
		Short: "Convert LI-COR gas-exchange logs to analysis-ready formats",
		Long: `licor reads the tab-separated logs written by LI-COR LI-6800 consoles,
checks them against the device and measurement configuration, and converts
them to typed Parquet or Excel files.

Commands:
  convert    - convert files matching a glob pattern
  inspect    - show metadata, variables and column statistics for one log
  variables  - list or look up entries of the variable dictionary
  serve      - run the HTTP parse API

Settings come from the environment (and a .env file); flags override them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
	}

	root.PersistentFlags().StringVar(&a.dictPath, "dictionary", "", "variable dictionary file, .toml or .yaml (default: $LICOR_DICTIONARY or embedded)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newConvertCmd(a),
		newInspectCmd(a),
		newVariablesCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrFailures) {
			printError(root.ErrOrStderr(), err)
		}
		return 1
	}
	return 0
}

// setup loads .env and the configuration, then configures logging.
// CLI logs go to stderr at warn level unless -v is given.
func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	// Variables already set in the shell take precedence over .env.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dictPath != "" {
		cfg.Dictionary.Path = a.dictPath
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = cfg.Logging.Level
	}
	logging.SetupWriter(a.errOut, level, cfg.Logging.Format)

	if envErr == nil {
		slog.Debug("loaded .env file")
	}
	return nil
}

// parser builds a parser from flag values, falling back to the configured
// device and measurement when a flag is empty.
func (a *app) parser(device, measurement string) (*core.Parser, error) {
	d, err := core.ParseDevice(firstNonEmpty(device, a.cfg.Convert.Device))
	if err != nil {
		return nil, err
	}
	m, err := core.ParseMeasurement(firstNonEmpty(measurement, a.cfg.Convert.Measurement))
	if err != nil {
		return nil, err
	}
	dict, err := dictionary.Load(a.cfg.Dictionary.Path)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	return core.NewParser(d, m, dict)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printError(w io.Writer, err error) {
	if core.IsUserFacing(err) {
		fmt.Fprintf(w, "Error: %s\n", core.FormatUserError(err))
		fmt.Fprintf(w, "  %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

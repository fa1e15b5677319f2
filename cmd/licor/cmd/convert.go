package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/licor/internal/batch"
	"github.com/JonMunkholm/licor/internal/core"
	"github.com/JonMunkholm/licor/internal/sink"
)

type convertOptions struct {
	device      string
	measurement string
	input       string
	output      string
	format      string
	workers     int
	maxFileSize int64
	database    bool
}

func newConvertCmd(a *app) *cobra.Command {
	var o convertOptions

	c := &cobra.Command{
		Use:   "convert",
		Short: "Convert log files to Parquet or Excel",
		Long: `Converts every file matching --input to <output>/<name>.<format>.

A file that fails to parse is reported and skipped; the remaining files are
still converted. The exit status is 1 if any file failed or nothing matched.

Examples:
  licor convert --device 6800 --config fluorometer --input 'data/*' --output out
  licor convert --config standard --input 'logs/2025-*' --output out --format xlsx
  licor convert --input 'logs/*' --output out --database   # also load into Postgres`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runConvert(cmd, o)
		},
	}

	f := c.Flags()
	f.StringVar(&o.device, "device", "", "device model: 6800 or 6400 (default: $LICOR_DEVICE)")
	f.StringVar(&o.measurement, "config", "", "measurement configuration: standard, fluorometer, aquatic or soil (default: $LICOR_CONFIG)")
	f.StringVarP(&o.input, "input", "i", "", "input files, glob pattern; ** matches any number of directories")
	f.StringVarP(&o.output, "output", "o", "", "output directory")
	f.StringVarP(&o.format, "format", "f", "", "output format: parquet or xlsx (default: $LICOR_OUTPUT_FORMAT)")
	f.IntVarP(&o.workers, "workers", "w", 0, "files converted in parallel (default: $LICOR_WORKERS)")
	f.Int64Var(&o.maxFileSize, "max-file-size", 0, "largest accepted log in bytes (default: $LICOR_MAX_FILE_SIZE)")
	f.BoolVar(&o.database, "database", false, "also load each file into a table in $DATABASE_URL")
	_ = c.MarkFlagRequired("input")
	_ = c.MarkFlagRequired("output")

	return c
}

func (a *app) runConvert(cmd *cobra.Command, o convertOptions) error {
	ctx := cmd.Context()
	st := newStyles(a.out)

	parser, err := a.parser(o.device, o.measurement)
	if err != nil {
		return err
	}
	writer, err := sink.ForFormat(firstNonEmpty(o.format, a.cfg.Convert.Format))
	if err != nil {
		return err
	}

	files, err := batch.Discover(o.input)
	if errors.Is(err, batch.ErrNoFiles) {
		fmt.Fprintf(a.errOut, "Error: No files found matching pattern: %s\n", o.input)
		return ErrFailures
	}
	if err != nil {
		return err
	}

	opts := batch.Options{
		Parser:      parser,
		Writer:      writer,
		OutputDir:   o.output,
		Workers:     o.workers,
		MaxFileSize: o.maxFileSize,
	}
	if opts.Workers <= 0 {
		opts.Workers = a.cfg.Convert.Workers
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = a.cfg.Convert.MaxFileSize
	}

	if o.database {
		if !a.cfg.Database.Enabled() {
			return errors.New("--database needs DATABASE_URL (or DB_URL) to be set")
		}
		pool, err := openPool(ctx, a.cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		opts.Loader = sink.NewPostgres(pool, a.cfg.Database.Schema)
	}

	if a.verbose {
		fmt.Fprintf(a.out, "Found %d files to convert\n", len(files))
		fmt.Fprintf(a.out, "Device: %s\n", parser.Device().Name())
		fmt.Fprintf(a.out, "Config: %s\n", parser.Measurement())
		fmt.Fprintf(a.out, "Format: %s\n", writer.Format())
		fmt.Fprintf(a.out, "Output directory: %s\n\n", o.output)
	}

	report, err := batch.Run(ctx, files, opts)
	if err != nil {
		return err
	}

	if a.verbose {
		for _, res := range report.Results {
			if !res.OK() {
				continue
			}
			fmt.Fprintf(a.out, "Converted: %s\n", res.Input)
			fmt.Fprintf(a.out, "  → %s (%d rows, %d columns)\n", res.Output, res.Rows, res.Columns)
			if len(res.FallbackColumns) > 0 {
				fmt.Fprintf(a.out, "  %s\n", st.muted.Render(fmt.Sprintf("kept as text: %v", res.FallbackColumns)))
			}
			if res.Table != "" {
				fmt.Fprintf(a.out, "  → table %s.%s\n", a.cfg.Database.Schema, res.Table)
			}
		}
	}

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, st.title.Render("Conversion complete:"))
	fmt.Fprintf(a.out, "  %s %d\n", st.success.Render("Successfully converted:"), report.Converted)
	fmt.Fprintf(a.out, "  %s %d\n", st.failure.Render("Failed:"), report.Failed)

	failures := report.Failures()
	if len(failures) == 0 {
		return nil
	}

	errSt := newStyles(a.errOut)
	fmt.Fprintln(a.errOut)
	fmt.Fprintln(a.errOut, errSt.failure.Render("Failed conversions:"))
	for _, res := range failures {
		fmt.Fprintf(a.errOut, "  %s: %v (%s)\n", res.Input, res.Err, core.MapError(res.Err).Code)
	}
	return ErrFailures
}

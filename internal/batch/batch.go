// Package batch converts many log files concurrently.
//
// Each file is parsed, written to the output directory in the selected
// format and optionally loaded into Postgres. A failing file never stops
// the run; its error is recorded in the report and the remaining files are
// still converted.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/licor/internal/core"
	"github.com/JonMunkholm/licor/internal/logging"
	"github.com/JonMunkholm/licor/internal/metrics"
	"github.com/JonMunkholm/licor/internal/sink"
)

// ErrNoFiles is returned by Discover when the pattern matches no files.
var ErrNoFiles = errors.New("no files found matching pattern")

// DefaultWorkers is the number of files converted at once when Options
// does not say.
const DefaultWorkers = 4

// Loader stores a dataset in a database table. *sink.Postgres implements it.
type Loader interface {
	Load(ctx context.Context, table string, ds *core.Dataset) (int64, error)
}

// Options configures a conversion run.
type Options struct {
	Parser      *core.Parser
	Writer      sink.Writer
	OutputDir   string
	Workers     int
	MaxFileSize int64            // Bytes; 0 disables the check
	Loader      Loader           // Optional database sink
	Metrics     *metrics.Metrics // Optional
}

// FileResult is the outcome of converting one file.
type FileResult struct {
	Input           string
	Output          string
	Table           string // Set when the dataset was loaded into the database
	Rows            int
	Columns         int
	FallbackColumns []string
	Err             error
}

// OK reports whether the file converted successfully.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// Report summarizes a conversion run. Results are in input order.
type Report struct {
	RunID     uuid.UUID
	Results   []FileResult
	Converted int
	Failed    int
	Duration  time.Duration
}

// Failures returns the results that carry an error.
func (r *Report) Failures() []FileResult {
	var failed []FileResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Discover expands a glob pattern to the regular files it matches, sorted.
// "**" matches any number of directories, so "logs/**/*.txt" finds logs in
// every subdirectory of logs.
func Discover(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath returns where input is written: the input's base name without
// its extension, plus the writer's extension, inside dir.
func OutputPath(dir, input string, w sink.Writer) string {
	return filepath.Join(dir, stem(input)+w.Extension())
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Run converts files with at most opts.Workers in flight. Per-file
// failures are recorded in the report; Run itself fails only on invalid
// options, an output directory it cannot create, or a cancelled ctx.
func Run(ctx context.Context, files []string, opts Options) (*Report, error) {
	if opts.Parser == nil {
		return nil, errors.New("batch: parser is required")
	}
	if opts.Writer == nil {
		return nil, errors.New("batch: writer is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	report := &Report{
		RunID:   uuid.New(),
		Results: make([]FileResult, len(files)),
	}
	logger := logging.WithFields(ctx, "run_id", report.RunID.String())
	logger.Info("conversion started",
		"files", len(files),
		"workers", opts.Workers,
		"device", opts.Parser.Device(),
		"config", opts.Parser.Measurement(),
		"format", opts.Writer.Format(),
	)
	start := time.Now()

	// Two inputs with the same stem would overwrite each other's output,
	// and two stems with the same table name each other's rows.
	owner := make(map[string]string, len(files))
	tableOwner := make(map[string]string, len(files))
	skip := make([]error, len(files))
	for i, f := range files {
		out := OutputPath(opts.OutputDir, f, opts.Writer)
		if prev, dup := owner[out]; dup {
			skip[i] = fmt.Errorf("output %s already written for %s", out, prev)
			continue
		}
		if opts.Loader != nil {
			table := sink.TableName(stem(f))
			if prev, dup := tableOwner[table]; dup {
				skip[i] = fmt.Errorf("table %s already loaded for %s", table, prev)
				continue
			}
			tableOwner[table] = f
		}
		owner[out] = f
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, f := range files {
		if skip[i] != nil {
			report.Results[i] = FileResult{Input: f, Err: skip[i]}
			continue
		}
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Results[i] = convertFile(gctx, f, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range report.Results {
		l := logger.With("file", res.Input)
		if res.OK() {
			report.Converted++
			l.Info("file converted",
				"output", res.Output,
				"rows", res.Rows,
				"columns", res.Columns,
				"fallback_columns", res.FallbackColumns,
			)
			continue
		}
		report.Failed++
		l.Warn("file failed", "error", res.Err, "code", core.MapError(res.Err).Code)
	}
	report.Duration = time.Since(start)

	logger.Info("conversion finished",
		"converted", report.Converted,
		"failed", report.Failed,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// convertFile parses, writes and optionally loads one file.
func convertFile(ctx context.Context, input string, opts Options) FileResult {
	res := FileResult{Input: input}

	ds, err := parseFile(input, opts)
	if err != nil {
		res.Err = err
		return res
	}
	res.Rows = ds.NumRows()
	res.Columns = ds.NumColumns()
	res.FallbackColumns = ds.FallbackColumns()

	out := OutputPath(opts.OutputDir, input, opts.Writer)
	if err := writeAtomic(out, opts.Writer, ds); err != nil {
		res.Err = fmt.Errorf("write %s: %w", out, err)
		return res
	}
	res.Output = out

	if opts.Loader != nil {
		table := sink.TableName(stem(input))
		if _, err := opts.Loader.Load(ctx, table, ds); err != nil {
			res.Err = fmt.Errorf("load table %s: %w", table, err)
			return res
		}
		res.Table = table
	}
	return res
}

func parseFile(input string, opts Options) (ds *core.Dataset, err error) {
	done := opts.Metrics.Start(metrics.SourceCLI)
	defer func() { done(ds, err) }()

	f, err := os.Open(input)
	if err != nil {
		return nil, core.IOError(err)
	}
	defer f.Close()

	return opts.Parser.ParseReader(core.NewSizeLimitReader(f, opts.MaxFileSize))
}

// writeAtomic writes ds to a temporary file next to path and renames it
// into place, so a failed write never leaves a truncated output.
func writeAtomic(path string, w sink.Writer, ds *core.Dataset) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename

	if err := w.Write(tmp, ds); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/licor/internal/core"
	"github.com/JonMunkholm/licor/internal/dictionary"
	"github.com/JonMunkholm/licor/internal/metrics"
	"github.com/JonMunkholm/licor/internal/sink"
)

const sampleFile = "../core/testdata/li6800_fluorometer.txt"

func newParser(t *testing.T) *core.Parser {
	t.Helper()
	dict, err := dictionary.Default()
	require.NoError(t, err)
	p, err := core.NewParser(core.DeviceLI6800, core.MeasurementFluorometer, dict)
	require.NoError(t, err)
	return p
}

// inputs writes two copies of the sample file and one file with a wrong
// console version into a temp dir and returns their paths.
func inputs(t *testing.T) (dir string, good []string, bad string) {
	t.Helper()
	sample, err := os.ReadFile(sampleFile)
	require.NoError(t, err)

	dir = t.TempDir()
	for _, name := range []string{"2025-05-30-0948_logdata", "leaf2.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, sample, 0o644))
		good = append(good, path)
	}

	bad = filepath.Join(dir, "other.txt")
	wrong := strings.Replace(string(sample), "Bluestem", "OPEN", 1)
	require.NoError(t, os.WriteFile(bad, []byte(wrong), 0o644))
	return dir, good, bad
}

type recordingLoader struct {
	mu     sync.Mutex
	tables []string
}

func (l *recordingLoader) Load(_ context.Context, table string, ds *core.Dataset) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tables = append(l.tables, table)
	return int64(ds.NumRows()), nil
}

func TestRun(t *testing.T) {
	_, good, bad := inputs(t)
	out := filepath.Join(t.TempDir(), "out")
	loader := &recordingLoader{}
	m := metrics.New()

	files := append(append([]string{}, good...), bad)
	report, err := Run(context.Background(), files, Options{
		Parser:    newParser(t),
		Writer:    sink.Parquet{},
		OutputDir: out,
		Workers:   2,
		Loader:    loader,
		Metrics:   m,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, report.RunID)
	assert.Equal(t, 2, report.Converted)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)

	first := report.Results[0]
	assert.True(t, first.OK())
	assert.Equal(t, filepath.Join(out, "2025-05-30-0948_logdata.parquet"), first.Output)
	assert.Equal(t, 3, first.Rows)
	assert.Equal(t, 25, first.Columns)
	assert.Equal(t, []string{"Fm'"}, first.FallbackColumns)
	assert.Equal(t, "licor_2025_05_30_0948_logdata", first.Table)
	assert.FileExists(t, first.Output)

	assert.Equal(t, filepath.Join(out, "leaf2.parquet"), report.Results[1].Output)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, bad, failures[0].Input)
	assert.ErrorIs(t, failures[0].Err, core.ErrInvalidFileFormat)
	assert.NoFileExists(t, filepath.Join(out, "other.parquet"))

	assert.ElementsMatch(t, []string{"licor_2025_05_30_0948_logdata", "leaf2"}, loader.tables)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesParsed.WithLabelValues(metrics.SourceCLI, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesParsed.WithLabelValues(metrics.SourceCLI, "error")))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestRun_XLSX(t *testing.T) {
	_, good, _ := inputs(t)
	out := t.TempDir()

	report, err := Run(context.Background(), good[:1], Options{
		Parser:    newParser(t),
		Writer:    sink.XLSX{},
		OutputDir: out,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Converted)
	assert.FileExists(t, filepath.Join(out, "2025-05-30-0948_logdata.xlsx"))
}

func TestRun_FileTooLarge(t *testing.T) {
	_, good, _ := inputs(t)

	report, err := Run(context.Background(), good[:1], Options{
		Parser:      newParser(t),
		Writer:      sink.Parquet{},
		OutputDir:   t.TempDir(),
		MaxFileSize: 64,
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)

	res := report.Results[0]
	assert.ErrorIs(t, res.Err, core.ErrFileTooLarge)
	assert.Equal(t, "FILE001", core.MapError(res.Err).Code)
}

func TestRun_DuplicateStems(t *testing.T) {
	sample, err := os.ReadFile(sampleFile)
	require.NoError(t, err)

	dir := t.TempDir()
	a := filepath.Join(dir, "run.txt")
	b := filepath.Join(dir, "run.log")
	require.NoError(t, os.WriteFile(a, sample, 0o644))
	require.NoError(t, os.WriteFile(b, sample, 0o644))

	report, err := Run(context.Background(), []string{a, b}, Options{
		Parser:    newParser(t),
		Writer:    sink.Parquet{},
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Converted)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Results[1].Err.Error(), "already written for")
}

func TestRun_DuplicateTables(t *testing.T) {
	sample, err := os.ReadFile(sampleFile)
	require.NoError(t, err)

	dir := t.TempDir()
	var files []string
	for _, name := range []string{"leaf-1.txt", "leaf_1.txt", "Leaf 1.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, sample, 0o644))
		files = append(files, path)
	}
	loader := &recordingLoader{}
	out := t.TempDir()

	report, err := Run(context.Background(), files, Options{
		Parser:    newParser(t),
		Writer:    sink.Parquet{},
		OutputDir: out,
		Loader:    loader,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Converted)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, []string{"leaf_1"}, loader.tables)
	assert.Equal(t, "leaf_1", report.Results[0].Table)
	for _, res := range report.Results[1:] {
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "table leaf_1 already loaded for "+files[0])
	}

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "skipped files write no output")
}

func TestRun_SameTableWithoutLoader(t *testing.T) {
	sample, err := os.ReadFile(sampleFile)
	require.NoError(t, err)

	dir := t.TempDir()
	a := filepath.Join(dir, "leaf-1.txt")
	b := filepath.Join(dir, "leaf_1.txt")
	require.NoError(t, os.WriteFile(a, sample, 0o644))
	require.NoError(t, os.WriteFile(b, sample, 0o644))

	report, err := Run(context.Background(), []string{a, b}, Options{
		Parser:    newParser(t),
		Writer:    sink.Parquet{},
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Converted)
}

func TestRun_Cancelled(t *testing.T) {
	_, good, _ := inputs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, good, Options{
		Parser:    newParser(t),
		Writer:    sink.Parquet{},
		OutputDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidOptions(t *testing.T) {
	_, err := Run(context.Background(), nil, Options{Writer: sink.Parquet{}})
	assert.Error(t, err)

	_, err = Run(context.Background(), nil, Options{Parser: newParser(t)})
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	dir, good, bad := inputs(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	files, err := Discover(filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{good[1], bad}, files, "directories are skipped")

	all, err := Discover(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = Discover(filepath.Join(dir, "*.csv"))
	assert.True(t, errors.Is(err, ErrNoFiles))

	_, err = Discover("[")
	assert.Error(t, err)
}

func TestDiscover_Recursive(t *testing.T) {
	sample, err := os.ReadFile(sampleFile)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	want := []string{
		filepath.Join(dir, "a", "b", "two.txt"),
		filepath.Join(dir, "a", "one.txt"),
		filepath.Join(dir, "top.txt"),
	}
	for _, path := range want {
		require.NoError(t, os.WriteFile(path, sample, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "notes.md"), []byte("x"), 0o644))

	files, err := Discover(filepath.Join(dir, "**", "*.txt"))
	require.NoError(t, err)
	assert.Equal(t, want, files)

	files, err = Discover(filepath.Join(dir, "a", "**", "*.txt"))
	require.NoError(t, err)
	assert.Equal(t, want[:2], files)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "run.parquet"), OutputPath("out", "/data/run.txt", sink.Parquet{}))
	assert.Equal(t, filepath.Join("out", "2025-05-30-0948_logdata.xlsx"), OutputPath("out", "2025-05-30-0948_logdata", sink.XLSX{}))
}

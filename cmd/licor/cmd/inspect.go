package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/licor/internal/core"
	"github.com/JonMunkholm/licor/internal/stats"
)

type inspectOptions struct {
	device      string
	measurement string
	asJSON      bool
}

func newInspectCmd(a *app) *cobra.Command {
	var o inspectOptions

	c := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show metadata, variables and statistics for one log",
		Long: `Parses one log and prints the device metadata, one row per variable
(type, units, category) and summary statistics for every column.

Examples:
  licor inspect data/2025-05-30-0948_logdata --config fluorometer
  licor inspect data/leaf2.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(args[0], o)
		},
	}

	f := c.Flags()
	f.StringVar(&o.device, "device", "", "device model: 6800 or 6400 (default: $LICOR_DEVICE)")
	f.StringVar(&o.measurement, "config", "", "measurement configuration (default: $LICOR_CONFIG)")
	f.BoolVar(&o.asJSON, "json", false, "print JSON instead of tables")

	return c
}

// inspection is the --json output.
type inspection struct {
	File      string              `json:"file"`
	Metadata  core.Metadata       `json:"metadata"`
	Rows      int                 `json:"rows"`
	Columns   int                 `json:"columns"`
	Variables []core.VariableInfo `json:"variables"`
	Summaries []stats.Summary     `json:"summaries"`
}

func (a *app) runInspect(path string, o inspectOptions) error {
	parser, err := a.parser(o.device, o.measurement)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return core.IOError(err)
	}
	defer f.Close()

	ds, err := parser.ParseReader(core.NewSizeLimitReader(f, a.cfg.Convert.MaxFileSize))
	if err != nil {
		return err
	}
	summaries := stats.Dataset(ds)

	if o.asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(inspection{
			File:      path,
			Metadata:  ds.Metadata,
			Rows:      ds.NumRows(),
			Columns:   ds.NumColumns(),
			Variables: ds.Variables,
			Summaries: summaries,
		})
	}

	st := newStyles(a.out)
	fmt.Fprintln(a.out, st.title.Render("File: "+filepath.Base(path)))

	fmt.Fprintln(a.out, st.title.Render("Dataset Overview"))
	fmt.Fprintln(a.out, st.renderTable([]string{"Metric", "Value"}, [][]string{
		{"Device", parser.Device().Name()},
		{"Config", parser.Measurement().Label()},
		{"Rows", strconv.Itoa(ds.NumRows())},
		{"Columns", strconv.Itoa(ds.NumColumns())},
		{"Kept as text", strconv.Itoa(len(ds.FallbackColumns()))},
	}))

	var meta [][]string
	for _, kv := range ds.Metadata.Pairs() {
		meta = append(meta, []string{kv[0], kv[1]})
	}
	fmt.Fprintln(a.out, st.title.Render("Metadata"))
	fmt.Fprintln(a.out, st.renderTable([]string{"Key", "Value"}, meta))

	vars := make([][]string, 0, len(ds.Variables))
	for _, v := range ds.Variables {
		typ := v.DataType.String()
		if v.FellBack() {
			typ += " (declared " + v.DeclaredType.String() + ")"
		}
		known := "yes"
		if !v.Known {
			known = "no"
		}
		vars = append(vars, []string{v.Name, typ, v.Units, v.Category, known, v.DisplayLabel})
	}
	fmt.Fprintln(a.out, st.title.Render("Variables"))
	fmt.Fprintln(a.out, st.renderTable([]string{"Name", "Type", "Units", "Category", "Known", "Label"}, vars))

	var numeric, other [][]string
	for _, s := range summaries {
		if s.Numeric {
			numeric = append(numeric, []string{
				s.Name,
				strconv.Itoa(s.Count),
				strconv.Itoa(s.Nulls),
				formatFloat(s.Mean),
				formatFloat(s.StdDev),
				formatFloat(s.Min),
				formatFloat(s.Median),
				formatFloat(s.Max),
			})
			continue
		}
		other = append(other, []string{
			s.Name,
			s.Type.String(),
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Nulls),
			strconv.Itoa(s.Distinct),
		})
	}
	if len(numeric) > 0 {
		fmt.Fprintln(a.out, st.title.Render("Numeric Columns"))
		fmt.Fprintln(a.out, st.renderTable([]string{"Name", "Count", "Nulls", "Mean", "Std Dev", "Min", "Median", "Max"}, numeric))
	}
	if len(other) > 0 {
		fmt.Fprintln(a.out, st.title.Render("Other Columns"))
		fmt.Fprintln(a.out, st.renderTable([]string{"Name", "Type", "Count", "Nulls", "Distinct"}, other))
	}
	return nil
}

// Package stats computes per-column summaries of parsed datasets.
package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/licor/internal/core"
)

// Summary describes the non-null values of one column.
// The numeric fields are only set when Numeric is true.
type Summary struct {
	Name      string        `json:"name"`
	Type      core.DataType `json:"type"`
	Count     int           `json:"count"` // Non-null cells
	Nulls     int           `json:"nulls"`
	Numeric   bool          `json:"numeric"`
	Mean      float64       `json:"mean,omitempty"`
	StdDev    float64       `json:"std_dev,omitempty"` // Sample standard deviation; 0 for fewer than two values
	Min       float64       `json:"min,omitempty"`
	Q25       float64       `json:"q25,omitempty"`
	Median    float64       `json:"median,omitempty"`
	Q75       float64       `json:"q75,omitempty"`
	Max       float64       `json:"max,omitempty"`
	Distinct  int           `json:"distinct,omitempty"`   // Text and boolean columns only
	NonFinite int           `json:"non_finite,omitempty"` // NaN and ±Inf cells, counted but left out of the statistics
}

// Dataset summarizes every column of ds in column order.
func Dataset(ds *core.Dataset) []Summary {
	out := make([]Summary, len(ds.Columns))
	for i := range ds.Columns {
		out[i] = Column(&ds.Columns[i])
	}
	return out
}

// Column summarizes one column. Float and integer columns get numeric
// statistics; text and boolean columns get a distinct-value count.
func Column(c *core.Column) Summary {
	s := Summary{Name: c.Name, Type: c.Type}

	switch c.Type {
	case core.Float, core.Integer:
		values := numericValues(c)
		s.Nulls = c.NullCount()
		s.Count = c.Len() - s.Nulls
		s.NonFinite = s.Count - len(values)
		if len(values) == 0 {
			return s
		}
		s.Numeric = true
		describe(&s, values)
	default:
		seen := make(map[any]struct{})
		for i := 0; i < c.Len(); i++ {
			if v := c.Value(i); v != nil {
				seen[v] = struct{}{}
				s.Count++
			}
		}
		s.Nulls = c.Len() - s.Count
		s.Distinct = len(seen)
	}
	return s
}

// numericValues returns the non-null values of a float or integer column.
func numericValues(c *core.Column) []float64 {
	values := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		switch v := c.Value(i).(type) {
		case float64:
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				values = append(values, v)
			}
		case int64:
			values = append(values, float64(v))
		}
	}
	return values
}

func describe(s *Summary, values []float64) {
	if len(values) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	} else {
		s.Mean = values[0]
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)

	// Median cannot fail on a non-empty input.
	s.Median, _ = mstats.Median(values)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	s.Q25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	s.Q75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
}

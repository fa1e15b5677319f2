package sink

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/licor/internal/core"
)

const (
	dataSheet      = "Data"
	variablesSheet = "Variables"
	metadataSheet  = "Metadata"
)

// XLSX writes datasets as Excel workbooks with three sheets: the data with
// a header row of column names, one row per variable describing the
// columns, and the device metadata.
type XLSX struct{}

func (XLSX) Format() string    { return "xlsx" }
func (XLSX) Extension() string { return ".xlsx" }

func (XLSX) Write(w io.Writer, ds *core.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile creates Sheet1; rename it so the data sheet stays first.
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return err
	}
	if err := writeDataSheet(f, ds); err != nil {
		return fmt.Errorf("write %s sheet: %w", dataSheet, err)
	}

	if _, err := f.NewSheet(variablesSheet); err != nil {
		return err
	}
	if err := writeVariablesSheet(f, ds); err != nil {
		return fmt.Errorf("write %s sheet: %w", variablesSheet, err)
	}

	if _, err := f.NewSheet(metadataSheet); err != nil {
		return err
	}
	if err := writeMetadataSheet(f, ds); err != nil {
		return fmt.Errorf("write %s sheet: %w", metadataSheet, err)
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

// writeDataSheet streams the data rows, which can number in the thousands.
func writeDataSheet(f *excelize.File, ds *core.Dataset) error {
	sw, err := f.NewStreamWriter(dataSheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, ds.NumColumns())
	for i, col := range ds.Columns {
		header[i] = col.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for row := 0; row < ds.NumRows(); row++ {
		values := make([]interface{}, ds.NumColumns())
		for i := range ds.Columns {
			values[i] = xlsxValue(ds.Columns[i].Value(row))
		}
		cell, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// xlsxValue writes NaN and ±Inf as text; workbooks have no such numbers.
func xlsxValue(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return v
}

func writeVariablesSheet(f *excelize.File, ds *core.Dataset) error {
	rows := [][]interface{}{
		{"name", "source", "label", "units", "type", "declared_type", "category", "known", "description"},
	}
	for _, v := range ds.Variables {
		rows = append(rows, []interface{}{
			v.Name, v.Source, v.DisplayLabel, v.Units,
			v.DataType.String(), v.DeclaredType.String(),
			v.Category, v.Known, v.Description,
		})
	}
	return setRows(f, variablesSheet, rows)
}

func writeMetadataSheet(f *excelize.File, ds *core.Dataset) error {
	rows := [][]interface{}{{"key", "value"}}
	for _, kv := range ds.Metadata.Pairs() {
		rows = append(rows, []interface{}{kv[0], kv[1]})
	}
	return setRows(f, metadataSheet, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

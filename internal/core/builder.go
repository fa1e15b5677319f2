package core

// builder.go converts the raw data matrix into typed columns.
//
// Conversion is all-or-nothing per column: every cell is parsed under the
// column's resolved type, and if any non-null cell fails the whole column is
// emitted as text with the original values. A column is never partially
// typed.

import (
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// BuildDataset converts a raw file into typed columns, resolving each
// column's type from the dictionary or, for unknown variables, from its
// units. Metadata is left empty; the Parser fills it in.
func BuildDataset(raw *RawFile, dict *Dictionary) (*Dataset, error) {
	ds := &Dataset{}
	used := make(map[string]struct{}, raw.NumColumns())

	for idx, name := range raw.ColumnNames {
		if name == "" {
			continue
		}

		unique := uniqueName(name, used)
		used[unique] = struct{}{}

		info := resolveVariable(raw, idx, unique, dict)

		values := columnValues(raw, idx)
		if len(values) == 0 {
			continue
		}

		col := convertColumn(unique, info.DeclaredType, values)
		info.DataType = col.Type

		ds.Columns = append(ds.Columns, col)
		ds.Variables = append(ds.Variables, info)
	}

	if len(ds.Columns) == 0 {
		return nil, errEmptyData()
	}
	return ds, nil
}

// uniqueName appends _1, _2, ... to name until it is not in used.
func uniqueName(name string, used map[string]struct{}) string {
	if _, taken := used[name]; !taken {
		return name
	}
	for n := 1; ; n++ {
		candidate := name + "_" + strconv.Itoa(n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// resolveVariable describes column idx, looking it up by its original name.
func resolveVariable(raw *RawFile, idx int, unique string, dict *Dictionary) VariableInfo {
	name := raw.ColumnNames[idx]
	category := cellAt(raw.ColumnCategories, idx)

	if def, ok := dict.Lookup(name); ok {
		return VariableInfo{
			Name:         unique,
			Source:       name,
			DisplayLabel: def.DisplayLabel,
			Units:        def.Units,
			Description:  def.Description,
			DeclaredType: def.DataType,
			Category:     category,
			Known:        true,
		}
	}

	units := cellAt(raw.Units, idx)
	return VariableInfo{
		Name:         unique,
		Source:       name,
		DisplayLabel: name,
		Units:        units,
		Description:  fmt.Sprintf("Unknown variable: %s", name),
		DeclaredType: InferDataType(units),
		Category:     category,
	}
}

// columnValues extracts column idx from every data row.
func columnValues(raw *RawFile, idx int) []string {
	values := make([]string, len(raw.Rows))
	for i, row := range raw.Rows {
		values[i] = cellAt(row, idx)
	}
	return values
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// convertColumn parses values as dt, falling back to text for the whole
// column if any cell fails.
func convertColumn(name string, dt DataType, values []string) Column {
	switch dt {
	case Float:
		if out, ok := convertAll(values, ToPgFloat8); ok {
			return Column{Name: name, Type: Float, Floats: out}
		}
	case Integer:
		if out, ok := convertAll(values, ToPgInt8); ok {
			return Column{Name: name, Type: Integer, Integers: out}
		}
	case Boolean:
		if out, ok := convertAll(values, ToPgBool); ok {
			return Column{Name: name, Type: Boolean, Booleans: out}
		}
	}
	return textColumn(name, values)
}

// convertAll applies conv to every value, stopping at the first failure.
func convertAll[T any](values []string, conv func(string) (T, bool)) ([]T, bool) {
	out := make([]T, len(values))
	for i, v := range values {
		parsed, ok := conv(v)
		if !ok {
			return nil, false
		}
		out[i] = parsed
	}
	return out, true
}

func textColumn(name string, values []string) Column {
	out := make([]pgtype.Text, len(values))
	for i, v := range values {
		out[i] = ToPgText(v)
	}
	return Column{Name: name, Type: String, Strings: out}
}

package core

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// DataType is the value type of a variable or output column.
type DataType int

const (
	Float DataType = iota
	Integer
	String
	Boolean
)

// String returns the lower-case name used in dictionaries and API responses.
func (t DataType) String() string {
	switch t {
	case Float:
		return "float"
	case Integer:
		return "integer"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t DataType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseDataType converts a dictionary type name to a DataType.
// Accepts the names produced by String plus a few common aliases.
func ParseDataType(s string) (DataType, bool) {
	switch normalizeCell(s) {
	case "float", "double", "f64", "number":
		return Float, true
	case "integer", "int", "i64":
		return Integer, true
	case "string", "text", "str":
		return String, true
	case "boolean", "bool":
		return Boolean, true
	default:
		return String, false
	}
}

// VariableDef describes a known instrument variable.
type VariableDef struct {
	InternalName string   // Column name as written by the console
	DisplayLabel string   // Human-readable label
	Units        string   // Empty when the variable is unitless
	Description  string   // Long description
	DataType     DataType // Declared value type
}

// Metadata holds device information extracted from the file header.
// Optional fields are nil when the header did not carry them.
type Metadata struct {
	DeviceSerial      string  `json:"device_serial"`
	ConsoleVersion    string  `json:"console_version"`
	HeadSerial        *string `json:"head_serial,omitempty"`
	HeadVersion       *string `json:"head_version,omitempty"`
	ChamberType       *string `json:"chamber_type,omitempty"`
	ChamberSerial     *string `json:"chamber_serial,omitempty"`
	FluorometerSerial *string `json:"fluorometer_serial,omitempty"`
	CalibrationDate   *string `json:"calibration_date,omitempty"`
}

// Pairs returns the metadata as ordered key/value pairs, skipping absent fields.
// Used by writers that store file-level metadata.
func (m Metadata) Pairs() [][2]string {
	pairs := [][2]string{
		{"device_serial", m.DeviceSerial},
		{"console_version", m.ConsoleVersion},
	}
	optional := []struct {
		key string
		val *string
	}{
		{"head_serial", m.HeadSerial},
		{"head_version", m.HeadVersion},
		{"chamber_type", m.ChamberType},
		{"chamber_serial", m.ChamberSerial},
		{"fluorometer_serial", m.FluorometerSerial},
		{"calibration_date", m.CalibrationDate},
	}
	for _, o := range optional {
		if o.val != nil {
			pairs = append(pairs, [2]string{o.key, *o.val})
		}
	}
	return pairs
}

// VariableInfo describes one output column.
type VariableInfo struct {
	Name         string   `json:"name"`          // Unique output column name
	Source       string   `json:"source"`        // Column name as it appeared in the file
	DisplayLabel string   `json:"display_label"` // Human-readable label
	Units        string   `json:"units,omitempty"`
	Description  string   `json:"description"`
	DataType     DataType `json:"data_type"`     // Type of the emitted column
	DeclaredType DataType `json:"declared_type"` // Type resolved before fallback
	Category     string   `json:"category"`      // Column category row value, e.g. "GasEx"
	Known        bool     `json:"known"`         // Found in the variable dictionary
}

// FellBack reports whether the column was emitted as text because at least
// one cell did not parse under its declared type.
func (v VariableInfo) FellBack() bool {
	return v.DataType != v.DeclaredType
}

// Column is a named, typed, nullable vector of values.
// Exactly one of the value slices is populated, selected by Type.
// Null cells have Valid=false.
type Column struct {
	Name     string
	Type     DataType
	Floats   []pgtype.Float8
	Integers []pgtype.Int8
	Strings  []pgtype.Text
	Booleans []pgtype.Bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Type {
	case Float:
		return len(c.Floats)
	case Integer:
		return len(c.Integers)
	case Boolean:
		return len(c.Booleans)
	default:
		return len(c.Strings)
	}
}

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	switch c.Type {
	case Float:
		return !c.Floats[i].Valid
	case Integer:
		return !c.Integers[i].Valid
	case Boolean:
		return !c.Booleans[i].Valid
	default:
		return !c.Strings[i].Valid
	}
}

// Value returns row i as a native Go value (float64, int64, string, bool),
// or nil when the cell is null.
func (c *Column) Value(i int) any {
	if c.IsNull(i) {
		return nil
	}
	switch c.Type {
	case Float:
		return c.Floats[i].Float64
	case Integer:
		return c.Integers[i].Int64
	case Boolean:
		return c.Booleans[i].Bool
	default:
		return c.Strings[i].String
	}
}

// PgValue returns row i as its pgtype value, suitable for the COPY protocol.
func (c *Column) PgValue(i int) any {
	switch c.Type {
	case Float:
		return c.Floats[i]
	case Integer:
		return c.Integers[i]
	case Boolean:
		return c.Booleans[i]
	default:
		return c.Strings[i]
	}
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Dataset is the typed result of parsing one log file.
// All columns have the same length.
type Dataset struct {
	Metadata  Metadata
	Columns   []Column
	Variables []VariableInfo
}

// NumRows returns the row count shared by every column.
func (d *Dataset) NumRows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int {
	return len(d.Columns)
}

// Column returns the column with the given output name.
func (d *Dataset) Column(name string) (*Column, VariableInfo, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], d.Variables[i], true
		}
	}
	return nil, VariableInfo{}, false
}

// FallbackColumns returns the names of columns that were emitted as text
// after failing to convert under their declared type.
func (d *Dataset) FallbackColumns() []string {
	var names []string
	for _, v := range d.Variables {
		if v.FellBack() {
			names = append(names, v.Name)
		}
	}
	return names
}

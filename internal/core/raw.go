package core

// raw.go splits a log file into its header map and data matrix.
//
// A log file looks like:
//
//	[Header]
//	Console s/n	68C-901292
//	Console ver	Bluestem v.2.1.13
//	...
//	[Data]
//	SysObs	GasEx	GasEx	...     <- column categories
//	obs	A	E	...             <- column names
//		µmol m⁻² s⁻¹	mol m⁻² s⁻¹	...  <- units
//	1	10.5	0.002	...         <- data rows
//
// Parsing is lenient about the data matrix: rows with too few or too many
// fields are padded or truncated instead of rejected, since a single
// damaged line should not cost the whole file.

import (
	"strings"
)

const (
	headerMarker = "[Header]"
	dataMarker   = "[Data]"

	// Number of header rows at the top of the data section.
	dataHeaderRows = 3
)

// RawFile is the untyped structure of a log file.
// ColumnCategories, ColumnNames and Units always have the same length, and
// every row in Rows has exactly that many fields.
type RawFile struct {
	Header           map[string]string
	ColumnCategories []string
	ColumnNames      []string
	Units            []string
	Rows             [][]string
}

// NumColumns returns the width of the data matrix.
func (r *RawFile) NumColumns() int {
	return len(r.ColumnNames)
}

// ParseRaw parses the text of a log file.
func ParseRaw(content string) (*RawFile, error) {
	lines := splitLines(content)

	headerStart, dataStart := -1, -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case headerMarker:
			if headerStart < 0 {
				headerStart = i
			}
		case dataMarker:
			if dataStart < 0 {
				dataStart = i
			}
		}
	}

	if headerStart < 0 {
		return nil, errHeaderFormat("missing [Header] section")
	}
	if dataStart < 0 {
		return nil, errHeaderFormat("missing [Data] section")
	}
	if dataStart <= headerStart {
		return nil, errHeaderFormat("[Data] section must come after [Header] section")
	}

	header := parseHeader(lines[headerStart+1 : dataStart])

	body := lines[dataStart+1:]
	if len(body) < dataHeaderRows {
		return nil, errEmptyData()
	}

	categories := splitFields(body[0])
	names := splitFields(body[1])
	units := splitFields(body[2])

	width := max(len(categories), len(names), len(units))
	categories = fitRow(categories, width)
	names = fitRow(names, width)
	units = fitRow(units, width)

	var rows [][]string
	for _, line := range body[dataHeaderRows:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, fitRow(splitFields(line), width))
	}

	if len(rows) == 0 {
		return nil, errEmptyData()
	}

	return &RawFile{
		Header:           header,
		ColumnCategories: categories,
		ColumnNames:      names,
		Units:            units,
		Rows:             rows,
	}, nil
}

// splitLines splits on '\n' and drops a trailing '\r' from each line.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// parseHeader builds the key/value map from header lines.
// Lines without a tab carry no value and are skipped.
func parseHeader(lines []string) map[string]string {
	header := make(map[string]string, len(lines))
	for _, line := range lines {
		key, value, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		header[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return header
}

// splitFields splits a data line on tabs, trims each field and drops the
// empty fields left by trailing tabs. Interior empty fields are kept.
func splitFields(line string) []string {
	fields := strings.Split(line, "\t")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

// fitRow pads row with empty strings or truncates it to exactly width fields.
func fitRow(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	if len(row) > width {
		return row[:width]
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

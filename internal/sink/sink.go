// Package sink writes parsed datasets to output formats.
//
// File formats implement [Writer] and are selected by name with [ForFormat].
// The Postgres loader is separate since it writes to a database rather than
// a stream; see [Postgres].
package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/licor/internal/core"
)

// Writer encodes a dataset to a stream.
type Writer interface {
	// Format returns the format name, e.g. "parquet".
	Format() string
	// Extension returns the file extension including the dot.
	Extension() string
	// Write encodes ds to w.
	Write(w io.Writer, ds *core.Dataset) error
}

// Formats lists the names accepted by ForFormat.
func Formats() []string {
	return []string{"parquet", "xlsx"}
}

// ForFormat returns the writer for a format name.
func ForFormat(name string) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "parquet", "":
		return Parquet{}, nil
	case "xlsx", "excel":
		return XLSX{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be %s)", name, strings.Join(Formats(), " or "))
	}
}

// metadataKeys returns file-level key/value pairs describing ds: device
// metadata plus label, units and description per column.
func metadataKeys(ds *core.Dataset) map[string]string {
	md := make(map[string]string)
	for _, kv := range ds.Metadata.Pairs() {
		md[kv[0]] = kv[1]
	}
	for _, v := range ds.Variables {
		prefix := "column." + v.Name + "."
		md[prefix+"label"] = v.DisplayLabel
		md[prefix+"description"] = v.Description
		md[prefix+"type"] = v.DataType.String()
		if v.Units != "" {
			md[prefix+"units"] = v.Units
		}
	}
	return md
}

package sink

import (
	"fmt"
	"io"
	"strings"

	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquet"
	"github.com/fraugster/parquet-go/parquetschema"

	"github.com/JonMunkholm/licor/internal/core"
)

const parquetCreator = "licor"

// Parquet writes datasets as Snappy-compressed Parquet files with one
// optional column per dataset column. Device and variable metadata are
// stored in the file's key/value metadata.
type Parquet struct{}

func (Parquet) Format() string    { return "parquet" }
func (Parquet) Extension() string { return ".parquet" }

func (Parquet) Write(w io.Writer, ds *core.Dataset) error {
	sd := parquetSchema(ds)

	fw := goparquet.NewFileWriter(w,
		goparquet.WithSchemaDefinition(sd),
		goparquet.WithCompressionCodec(parquet.CompressionCodec_SNAPPY),
		goparquet.WithCreator(parquetCreator),
		goparquet.WithMetaData(metadataKeys(ds)),
	)

	names := make([]string, ds.NumColumns())
	for i, col := range ds.Columns {
		names[i] = parquetName(col.Name)
	}

	for row := 0; row < ds.NumRows(); row++ {
		rec := make(map[string]interface{}, len(ds.Columns))
		for i := range ds.Columns {
			if v := parquetValue(&ds.Columns[i], row); v != nil {
				rec[names[i]] = v
			}
		}
		if err := fw.AddData(rec); err != nil {
			return fmt.Errorf("add row %d: %w", row, err)
		}
	}

	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// parquetSchema builds a flat message with one optional leaf per column.
// Column names may contain characters the textual schema syntax rejects
// (Fm', Fv/Fm), so the definition is assembled directly.
func parquetSchema(ds *core.Dataset) *parquetschema.SchemaDefinition {
	children := make([]*parquetschema.ColumnDefinition, len(ds.Columns))
	for i, col := range ds.Columns {
		el := &parquet.SchemaElement{
			Name:           parquetName(col.Name),
			RepetitionType: parquet.FieldRepetitionTypePtr(parquet.FieldRepetitionType_OPTIONAL),
		}
		switch col.Type {
		case core.Float:
			el.Type = parquet.TypePtr(parquet.Type_DOUBLE)
		case core.Integer:
			el.Type = parquet.TypePtr(parquet.Type_INT64)
		case core.Boolean:
			el.Type = parquet.TypePtr(parquet.Type_BOOLEAN)
		default:
			el.Type = parquet.TypePtr(parquet.Type_BYTE_ARRAY)
			el.ConvertedType = parquet.ConvertedTypePtr(parquet.ConvertedType_UTF8)
			el.LogicalType = &parquet.LogicalType{STRING: &parquet.StringType{}}
		}
		children[i] = &parquetschema.ColumnDefinition{SchemaElement: el}
	}

	numChildren := int32(len(children))
	return &parquetschema.SchemaDefinition{
		RootColumn: &parquetschema.ColumnDefinition{
			SchemaElement: &parquet.SchemaElement{
				Name:        "licor",
				NumChildren: &numChildren,
			},
			Children: children,
		},
	}
}

// parquetValue returns row i in the representation the writer expects,
// or nil for a null cell.
func parquetValue(c *core.Column, i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	switch c.Type {
	case core.Float:
		return c.Floats[i].Float64
	case core.Integer:
		return c.Integers[i].Int64
	case core.Boolean:
		return c.Booleans[i].Bool
	default:
		return []byte(c.Strings[i].String)
	}
}

// parquetName replaces the path separator, which would otherwise turn a
// column into a nested field.
func parquetName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

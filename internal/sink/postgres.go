package sink

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/licor/internal/core"
)

// TxBeginner starts transactions. *pgxpool.Pool and *pgx.Conn satisfy it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres loads datasets into one table per file.
//
// Each load runs in a single transaction: any existing table is dropped,
// recreated with the dataset's columns, and filled with COPY. Reloading a
// file replaces the table even when its columns or types changed, matching
// how file outputs are overwritten.
type Postgres struct {
	db     TxBeginner
	schema string
}

// NewPostgres creates a loader writing into schema (default "public").
func NewPostgres(db TxBeginner, schema string) *Postgres {
	if schema == "" {
		schema = "public"
	}
	return &Postgres{db: db, schema: schema}
}

// Load writes ds to the table named table and returns the number of rows
// copied.
func (p *Postgres) Load(ctx context.Context, table string, ds *core.Dataset) (int64, error) {
	ident := pgx.Identifier{p.schema, table}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
		return 0, fmt.Errorf("drop table %s: %w", ident.Sanitize(), err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(ident, ds)); err != nil {
		return 0, fmt.Errorf("create table %s: %w", ident.Sanitize(), err)
	}

	columns := make([]string, ds.NumColumns())
	for i, col := range ds.Columns {
		columns[i] = col.Name
	}

	n, err := tx.CopyFrom(ctx, ident, columns, pgx.CopyFromSlice(ds.NumRows(), func(row int) ([]any, error) {
		values := make([]any, len(ds.Columns))
		for i := range ds.Columns {
			values[i] = ds.Columns[i].PgValue(row)
		}
		return values, nil
	}))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// createTableSQL returns the CREATE TABLE statement for ds.
func createTableSQL(ident pgx.Identifier, ds *core.Dataset) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(ident.Sanitize())
	b.WriteString(" (")
	for i, col := range ds.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{col.Name}.Sanitize())
		b.WriteByte(' ')
		b.WriteString(pgType(col.Type))
	}
	b.WriteString(")")
	return b.String()
}

func pgType(t core.DataType) string {
	switch t {
	case core.Float:
		return "double precision"
	case core.Integer:
		return "bigint"
	case core.Boolean:
		return "boolean"
	default:
		return "text"
	}
}

// TableName derives a table name from a file stem: lower case, with runs
// of characters other than letters and digits collapsed to one underscore.
// Postgres truncates identifiers at 63 bytes.
func TableName(stem string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(stem) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	switch {
	case name == "":
		name = "licor"
	case unicode.IsDigit(rune(name[0])):
		name = "licor_" + name
	}
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx records the statements and rows a load sends. Methods not
// overridden panic through the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	execs      []string
	table      pgx.Identifier
	columns    []string
	rows       [][]any
	copyErr    error
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (f *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.table = table
	f.columns = columns
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.rows = append(f.rows, values)
	}
	return int64(len(f.rows)), src.Err()
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	return d.tx, nil
}

func TestPostgres_Load(t *testing.T) {
	ds := testDataset(t)
	tx := &fakeTx{}
	p := NewPostgres(&fakeDB{tx: tx}, "")

	n, err := p.Load(context.Background(), "run_0948", ds)
	require.NoError(t, err)

	assert.Equal(t, int64(3), n)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)

	require.Len(t, tx.execs, 2)
	assert.Equal(t,
		`DROP TABLE IF EXISTS "public"."run_0948"`,
		tx.execs[0])
	assert.Equal(t,
		`CREATE TABLE "public"."run_0948" ("obs" bigint, "A" double precision, "stable" boolean, "date" text, "Fm'" text)`,
		tx.execs[1])

	assert.Equal(t, pgx.Identifier{"public", "run_0948"}, tx.table)
	assert.Equal(t, []string{"obs", "A", "stable", "date", "Fm'"}, tx.columns)
	require.Len(t, tx.rows, 3)
	assert.Equal(t, pgtype.Int8{Int64: 1, Valid: true}, tx.rows[0][0])
	assert.Equal(t, pgtype.Float8{}, tx.rows[1][1], "null float")
	assert.Equal(t, pgtype.Text{String: "bad", Valid: true}, tx.rows[1][4])
}

func TestPostgres_ReloadReplacesSchema(t *testing.T) {
	first := &fakeTx{}
	_, err := NewPostgres(&fakeDB{tx: first}, "").Load(context.Background(), "run", testDataset(t))
	require.NoError(t, err)

	// A re-export of the same run with fewer columns.
	ds := testDataset(t)
	ds.Columns = ds.Columns[:2]
	second := &fakeTx{}
	_, err = NewPostgres(&fakeDB{tx: second}, "").Load(context.Background(), "run", ds)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`DROP TABLE IF EXISTS "public"."run"`,
		`CREATE TABLE "public"."run" ("obs" bigint, "A" double precision)`,
	}, second.execs)
	assert.Equal(t, []string{"obs", "A"}, second.columns)
	assert.True(t, second.committed)
}

func TestPostgres_LoadRollsBackOnError(t *testing.T) {
	tx := &fakeTx{copyErr: errors.New("connection reset")}
	p := NewPostgres(&fakeDB{tx: tx}, "lab")

	_, err := p.Load(context.Background(), "run", testDataset(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `copy into "lab"."run"`)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestTableName(t *testing.T) {
	tests := []struct {
		stem string
		want string
	}{
		{"2025-05-30-0948_logdata", "licor_2025_05_30_0948_logdata"},
		{"Leaf A", "leaf_a"},
		{"run--1", "run_1"},
		{"µ-test", "test"},
		{"___", "licor"},
		{"", "licor"},
	}

	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			assert.Equal(t, tt.want, TableName(tt.stem))
		})
	}
}

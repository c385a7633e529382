package dataset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, rows Rows) []Row {
	t.Helper()
	var out []Row
	for rows.Next() {
		out = append(out, rows.Row())
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	return out
}

func TestStaticDataset(t *testing.T) {
	ctx := context.Background()
	ds := NewStaticDataset([]string{"id", "name"}, []Row{{1, "a"}, {2, "b"}})

	_, err := ds.Iterate(ctx, nil)
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, ds.Open(ctx))
	rows, err := ds.Iterate(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, rows.Columns())
	assert.Equal(t, []Row{{1, "a"}, {2, "b"}}, collect(t, rows))
	assert.Nil(t, rows.Row())
	assert.False(t, rows.Next())
	require.NoError(t, ds.Close())
}

func TestStaticDataset_Empty(t *testing.T) {
	ctx := context.Background()
	ds := NewStaticDataset(nil, nil)
	require.NoError(t, ds.Open(ctx))

	rows, err := ds.Iterate(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, collect(t, rows))
}

func newSQLiteConnections(t *testing.T) *Connections {
	t.Helper()
	conns := NewConnections(map[string]SourceConfig{
		"local": {
			Driver:       "sqlite",
			DSN:          filepath.Join(t.TempDir(), "sales.db"),
			MaxOpenConns: 1,
		},
	}, nil)
	t.Cleanup(func() { conns.Close() })

	db, err := conns.Get(context.Background(), "local")
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE sales (id INTEGER PRIMARY KEY, region TEXT, amount REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO sales (id, region, amount) VALUES (1, 'north', 10.5), (2, 'south', 20), (3, 'north', 7.25)`)
	require.NoError(t, err)

	return conns
}

func TestSQLDataset(t *testing.T) {
	ctx := context.Background()
	conns := newSQLiteConnections(t)

	ds := NewSQLDataset(conns, "local", "SELECT id, region, amount FROM sales WHERE region = ? ORDER BY id", "region")
	require.NoError(t, ds.Open(ctx))
	defer ds.Close()

	rows, err := ds.Iterate(ctx, Params{"region": "north"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "region", "amount"}, rows.Columns())

	got := collect(t, rows)
	require.Len(t, got, 2)
	assert.EqualValues(t, 1, got[0][0])
	assert.Equal(t, "north", got[0][1])
	assert.InDelta(t, 10.5, got[0][2], 0.0001)
	assert.EqualValues(t, 3, got[1][0])
}

func TestSQLDataset_MissingParam(t *testing.T) {
	ctx := context.Background()
	conns := newSQLiteConnections(t)

	ds := NewSQLDataset(conns, "local", "SELECT id FROM sales WHERE region = ?", "region")
	require.NoError(t, ds.Open(ctx))

	_, err := ds.Iterate(ctx, Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing query param "region"`)
}

func TestSQLDataset_NotOpen(t *testing.T) {
	ds := NewSQLDataset(NewConnections(nil, nil), "", "SELECT 1")
	assert.Equal(t, DefaultDatasource, ds.Datasource)

	_, err := ds.Iterate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestSQLDataset_BadQuery(t *testing.T) {
	ctx := context.Background()
	conns := newSQLiteConnections(t)

	ds := NewSQLDataset(conns, "local", "SELECT nope FROM missing")
	require.NoError(t, ds.Open(ctx))

	_, err := ds.Iterate(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run dataset query")
}

func TestConnections_Errors(t *testing.T) {
	ctx := context.Background()
	conns := NewConnections(map[string]SourceConfig{
		"odd": {Driver: "oracle", DSN: "x"},
	}, nil)

	_, err := conns.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownDatasource)

	_, err = conns.Get(ctx, "odd")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	ds := NewSQLDataset(conns, "missing", "SELECT 1")
	assert.ErrorIs(t, ds.Open(ctx), ErrUnknownDatasource)
}

func TestConnections_Names(t *testing.T) {
	conns := NewConnections(map[string]SourceConfig{
		"b": {Driver: "mysql"},
		"a": {Driver: "postgres"},
	}, nil)
	assert.Equal(t, []string{"a", "b"}, conns.Names())
}

package dataset

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLDataset runs a raw query against a named datasource. The query uses "?"
// placeholders, rebound for the datasource driver. QueryParams name the report
// params passed, in order, as query arguments.
type SQLDataset struct {
	Connections *Connections
	Datasource  string
	Query       string
	QueryParams []string

	db *sqlx.DB
}

// NewSQLDataset creates a dataset for query on datasource
func NewSQLDataset(conns *Connections, datasource, query string, queryParams ...string) *SQLDataset {
	if datasource == "" {
		datasource = DefaultDatasource
	}
	return &SQLDataset{
		Connections: conns,
		Datasource:  datasource,
		Query:       query,
		QueryParams: queryParams,
	}
}

func (d *SQLDataset) Open(ctx context.Context) error {
	if d.Connections == nil {
		return fmt.Errorf("%w: %s", ErrUnknownDatasource, d.Datasource)
	}
	db, err := d.Connections.Get(ctx, d.Datasource)
	if err != nil {
		return err
	}
	d.db = db
	return nil
}

func (d *SQLDataset) Iterate(ctx context.Context, params Params) (Rows, error) {
	if d.db == nil {
		return nil, ErrNotOpen
	}

	args := make([]any, 0, len(d.QueryParams))
	for _, name := range d.QueryParams {
		value, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("missing query param %q", name)
		}
		args = append(args, value)
	}

	rows, err := d.db.QueryxContext(ctx, d.db.Rebind(d.Query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run dataset query: %w", err)
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read dataset columns: %w", err)
	}

	return &sqlRows{rows: rows, columns: columns}, nil
}

// Close releases the dataset. The pool stays open in Connections.
func (d *SQLDataset) Close() error {
	d.db = nil
	return nil
}

type sqlRows struct {
	rows    *sqlx.Rows
	columns []string
	current Row
	err     error
}

func (r *sqlRows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	values, err := r.rows.SliceScan()
	if err != nil {
		r.err = fmt.Errorf("failed to scan dataset row: %w", err)
		return false
	}
	r.current = values
	return true
}

func (r *sqlRows) Row() Row          { return r.current }
func (r *sqlRows) Columns() []string { return r.columns }

func (r *sqlRows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *sqlRows) Close() error {
	return r.rows.Close()
}

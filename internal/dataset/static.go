package dataset

import "context"

// StaticDataset serves a fixed set of rows held in memory
type StaticDataset struct {
	columns []string
	rows    []Row
	opened  bool
}

// NewStaticDataset creates a dataset over rows with the given column names
func NewStaticDataset(columns []string, rows []Row) *StaticDataset {
	return &StaticDataset{columns: columns, rows: rows}
}

func (d *StaticDataset) Open(ctx context.Context) error {
	d.opened = true
	return nil
}

func (d *StaticDataset) Iterate(ctx context.Context, params Params) (Rows, error) {
	if !d.opened {
		return nil, ErrNotOpen
	}
	return &sliceRows{columns: d.columns, rows: d.rows, pos: -1}, nil
}

func (d *StaticDataset) Close() error {
	d.opened = false
	return nil
}

type sliceRows struct {
	columns []string
	rows    []Row
	pos     int
}

func (r *sliceRows) Next() bool {
	if r.pos+1 >= len(r.rows) {
		r.pos = len(r.rows)
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Row() Row {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil
	}
	return r.rows[r.pos]
}

func (r *sliceRows) Columns() []string { return r.columns }
func (r *sliceRows) Err() error        { return nil }
func (r *sliceRows) Close() error      { return nil }

// Package dataset provides the row sources reports iterate over.
package dataset

import "context"

// Row is a single record produced by a dataset
type Row []any

// Params are the report params handed to a dataset when iterating
type Params map[string]any

// Dataset is a source of rows. Open must be called before Iterate and Close
// releases whatever Open acquired.
type Dataset interface {
	Open(ctx context.Context) error
	Iterate(ctx context.Context, params Params) (Rows, error)
	Close() error
}

// Rows is a forward-only cursor over dataset rows
type Rows interface {
	Next() bool
	Row() Row
	Columns() []string
	Err() error
	Close() error
}

package dataset

import "errors"

var (
	// ErrNotOpen is returned when iterating a dataset that was not opened
	ErrNotOpen = errors.New("dataset is not open")

	// ErrUnknownDatasource is returned when a datasource name is not configured
	ErrUnknownDatasource = errors.New("unknown datasource")

	// ErrUnsupportedDriver is returned for datasource drivers that are not linked in
	ErrUnsupportedDriver = errors.New("unsupported datasource driver")
)

package report

import "errors"

var (
	// ErrUnknownReport is returned when a report name is not registered
	ErrUnknownReport = errors.New("unknown report")

	// ErrDuplicateReport is returned when registering a name twice
	ErrDuplicateReport = errors.New("report already registered")

	// ErrNoDataset is returned when processing a report without a dataset
	ErrNoDataset = errors.New("report has no dataset")

	// ErrNoOutputs is returned when processing a report without outputs
	ErrNoOutputs = errors.New("report has no outputs")

	// ErrInvalidParam is returned when params do not satisfy the report fields
	ErrInvalidParam = errors.New("invalid report param")
)

package domain

import "errors"

var (
	// ErrReportNotSaved is returned when processing a record that has no identity yet
	ErrReportNotSaved = errors.New("report record has not been saved")

	// ErrReportNotFound is returned when a report record cannot be found in the database
	ErrReportNotFound = errors.New("report not found")

	// ErrReportAlreadyClaimed is returned when the record is processing or already processed
	ErrReportAlreadyClaimed = errors.New("report already claimed or not in a claimable status")

	// ErrReportNotTerminal is returned when deleting a record that is still pending or processing
	ErrReportNotTerminal = errors.New("report is not in a terminal status")

	// ErrSchedulerNotFound is returned when a scheduler cannot be found in the database
	ErrSchedulerNotFound = errors.New("scheduler not found")

	// ErrInvalidPeriodicity is returned for an unknown scheduler periodicity
	ErrInvalidPeriodicity = errors.New("invalid periodicity")

	// ErrInvalidParams is returned when stored or submitted params are malformed
	ErrInvalidParams = errors.New("invalid report params")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

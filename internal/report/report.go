// Package report defines reports and runs their dataset -> row cleaner ->
// outputs pipeline.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuongbtq/onmydesk/internal/dataset"
	"github.com/cuongbtq/onmydesk/internal/output"
)

// Params are the values a report is processed with (a date range, a region...)
type Params = dataset.Params

// RowCleaner converts or sanitizes a row before it reaches the outputs
type RowCleaner func(row dataset.Row) (dataset.Row, error)

// Report is a report definition bound to its params. Build one per run through
// a Factory; OutputFilepaths is filled by Process.
type Report struct {
	Name    string
	Title   string
	Fields  []Field
	Params  Params
	Header  []string
	Footer  []string
	Dataset dataset.Dataset
	Outputs []output.Output

	// CleanRow defaults to passing rows through unchanged
	CleanRow RowCleaner

	OutputFilepaths []string
}

// Process runs the report: every row of the dataset is cleaned and written to
// every output. Outputs opened so far are closed on any failure.
func (r *Report) Process(ctx context.Context) (err error) {
	if r.Dataset == nil {
		return ErrNoDataset
	}
	if len(r.Outputs) == 0 {
		return ErrNoOutputs
	}
	r.OutputFilepaths = nil

	if err := r.Dataset.Open(ctx); err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() {
		if closeErr := r.Dataset.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close dataset: %w", closeErr))
		}
	}()

	opened := make([]output.Output, 0, len(r.Outputs))
	closeOutputs := func() error {
		var errs []error
		for i := len(opened) - 1; i >= 0; i-- {
			if closeErr := opened[i].Close(); closeErr != nil {
				errs = append(errs, fmt.Errorf("failed to close output: %w", closeErr))
			}
		}
		opened = opened[:0]
		return errors.Join(errs...)
	}
	defer func() {
		if closeErr := closeOutputs(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	for _, o := range r.Outputs {
		if err := o.Open(); err != nil {
			return fmt.Errorf("failed to open output: %w", err)
		}
		opened = append(opened, o)
	}

	for _, o := range opened {
		if err := o.Header(r.Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	if err := r.writeRows(ctx, opened); err != nil {
		return err
	}

	for _, o := range opened {
		if err := o.Footer(r.Footer); err != nil {
			return fmt.Errorf("failed to write footer: %w", err)
		}
	}

	if err := closeOutputs(); err != nil {
		return err
	}

	paths := make([]string, len(r.Outputs))
	for i, o := range r.Outputs {
		paths[i] = o.Filepath()
	}
	r.OutputFilepaths = paths
	return nil
}

func (r *Report) writeRows(ctx context.Context, outputs []output.Output) (err error) {
	rows, err := r.Dataset.Iterate(ctx, r.Params)
	if err != nil {
		return fmt.Errorf("failed to iterate dataset: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close rows: %w", closeErr))
		}
	}()

	clean := r.CleanRow
	if clean == nil {
		clean = PassThrough
	}

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := clean(rows.Row())
		if err != nil {
			return fmt.Errorf("failed to clean row: %w", err)
		}
		for _, o := range outputs {
			if err := o.Out(row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}
	return nil
}

// PassThrough is the default row cleaner
func PassThrough(row dataset.Row) (dataset.Row, error) {
	return row, nil
}

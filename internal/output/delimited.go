package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/cuongbtq/onmydesk/internal/dataset"
)

// DelimitedOutput writes rows as delimiter separated text
type DelimitedOutput struct {
	fileTarget
	comma  rune
	file   *os.File
	writer *csv.Writer
}

// NewCSVOutput creates a comma separated output in dir
func NewCSVOutput(dir string) *DelimitedOutput {
	return &DelimitedOutput{
		fileTarget: fileTarget{dir: dir, prefix: "report", ext: ".csv"},
		comma:      ',',
	}
}

// NewTSVOutput creates a tab separated output in dir
func NewTSVOutput(dir string) *DelimitedOutput {
	return &DelimitedOutput{
		fileTarget: fileTarget{dir: dir, prefix: "report", ext: ".tsv"},
		comma:      '\t',
	}
}

func (o *DelimitedOutput) Open() error {
	f, err := o.create()
	if err != nil {
		return err
	}
	o.file = f
	o.writer = csv.NewWriter(f)
	o.writer.Comma = o.comma
	return nil
}

func (o *DelimitedOutput) Header(header []string) error {
	if header == nil {
		return nil
	}
	return o.write(header)
}

func (o *DelimitedOutput) Out(row dataset.Row) error {
	return o.write(FormatRow(row))
}

func (o *DelimitedOutput) Footer(footer []string) error {
	if footer == nil {
		return nil
	}
	return o.write(footer)
}

func (o *DelimitedOutput) write(rec []string) error {
	if o.writer == nil {
		return ErrNotOpen
	}
	if err := o.writer.Write(rec); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func (o *DelimitedOutput) Close() error {
	if o.file == nil {
		return nil
	}
	o.writer.Flush()
	flushErr := o.writer.Error()
	closeErr := o.file.Close()
	o.file = nil
	o.writer = nil
	if flushErr != nil {
		return fmt.Errorf("failed to flush output: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output: %w", closeErr)
	}
	return nil
}

package output

import (
	"fmt"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/cuongbtq/onmydesk/internal/dataset"
)

// SheetName is the name of the single sheet written by XLSXOutput
const SheetName = "Report"

// XLSXOutput writes rows into a single-sheet Excel workbook. The workbook is
// built in memory and saved on Close.
type XLSXOutput struct {
	fileTarget
	file  *xlsx.File
	sheet *xlsx.Sheet
}

// NewXLSXOutput creates an Excel output in dir
func NewXLSXOutput(dir string) *XLSXOutput {
	return &XLSXOutput{
		fileTarget: fileTarget{dir: dir, prefix: "report", ext: ".xlsx"},
	}
}

func (o *XLSXOutput) Open() error {
	f, err := o.create()
	if err != nil {
		return err
	}
	// the workbook is written by Save, only the unique name is needed here
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to reserve output file: %w", err)
	}

	o.file = xlsx.NewFile()
	o.sheet, err = o.file.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	return nil
}

func (o *XLSXOutput) Header(header []string) error {
	if header == nil {
		return nil
	}
	return o.writeStrings(header)
}

func (o *XLSXOutput) Out(row dataset.Row) error {
	if o.sheet == nil {
		return ErrNotOpen
	}
	r := o.sheet.AddRow()
	for _, v := range row {
		setCell(r.AddCell(), v)
	}
	return nil
}

func (o *XLSXOutput) Footer(footer []string) error {
	if footer == nil {
		return nil
	}
	return o.writeStrings(footer)
}

func (o *XLSXOutput) writeStrings(values []string) error {
	if o.sheet == nil {
		return ErrNotOpen
	}
	r := o.sheet.AddRow()
	for _, v := range values {
		r.AddCell().SetString(v)
	}
	return nil
}

func (o *XLSXOutput) Close() error {
	if o.file == nil {
		return nil
	}
	err := o.file.Save(o.path)
	o.file = nil
	o.sheet = nil
	if err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch val := v.(type) {
	case int:
		cell.SetInt64(int64(val))
	case int32:
		cell.SetInt64(int64(val))
	case int64:
		cell.SetInt64(val)
	case float32:
		cell.SetFloat(float64(val))
	case float64:
		cell.SetFloat(val)
	case bool:
		cell.SetBool(val)
	case time.Time:
		cell.SetDateTime(val)
	default:
		cell.SetString(FormatValue(v))
	}
}

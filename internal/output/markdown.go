package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/cuongbtq/onmydesk/internal/dataset"
)

// MarkdownOutput renders the report as a GitHub flavored markdown table.
// Rows are buffered and the document is written on Close.
type MarkdownOutput struct {
	fileTarget
	file   *os.File
	header []string
	footer []string
	rows   [][]string
	width  int
}

// NewMarkdownOutput creates a markdown output in dir
func NewMarkdownOutput(dir string) *MarkdownOutput {
	return &MarkdownOutput{
		fileTarget: fileTarget{dir: dir, prefix: "report", ext: ".md"},
	}
}

func (o *MarkdownOutput) Open() error {
	f, err := o.create()
	if err != nil {
		return err
	}
	o.file = f
	return nil
}

func (o *MarkdownOutput) Header(header []string) error {
	if o.file == nil {
		return ErrNotOpen
	}
	o.header = header
	o.grow(len(header))
	return nil
}

func (o *MarkdownOutput) Out(row dataset.Row) error {
	if o.file == nil {
		return ErrNotOpen
	}
	o.rows = append(o.rows, FormatRow(row))
	o.grow(len(row))
	return nil
}

func (o *MarkdownOutput) Footer(footer []string) error {
	if o.file == nil {
		return ErrNotOpen
	}
	o.footer = footer
	return nil
}

func (o *MarkdownOutput) grow(n int) {
	if n > o.width {
		o.width = n
	}
}

func (o *MarkdownOutput) Close() error {
	if o.file == nil {
		return nil
	}
	defer func() {
		o.file = nil
	}()

	md := markdown.NewMarkdown(o.file)
	if o.width > 0 {
		md.Table(markdown.TableSet{
			Header: escapeCells(pad(o.columns(), o.width)),
			Rows:   o.paddedRows(),
		})
	} else {
		md.PlainText("No rows.")
	}
	if len(o.footer) > 0 {
		md.PlainText("")
		md.PlainText(cellEscaper.Replace(strings.Join(o.footer, " ")))
	}

	buildErr := md.Build()
	closeErr := o.file.Close()
	if buildErr != nil {
		return fmt.Errorf("failed to render markdown: %w", buildErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output: %w", closeErr)
	}
	return nil
}

func (o *MarkdownOutput) columns() []string {
	if o.header != nil {
		return o.header
	}
	cols := make([]string, o.width)
	for i := range cols {
		cols[i] = fmt.Sprintf("Column %d", i+1)
	}
	return cols
}

func (o *MarkdownOutput) paddedRows() [][]string {
	rows := make([][]string, len(o.rows))
	for i, r := range o.rows {
		rows[i] = escapeCells(pad(r, o.width))
	}
	return rows
}

// cellEscaper keeps pipes and line breaks from splitting table cells
var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>", "\r", "<br>")

func escapeCells(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = cellEscaper.Replace(v)
	}
	return out
}

func pad(values []string, width int) []string {
	if len(values) >= width {
		return values
	}
	out := make([]string, width)
	copy(out, values)
	return out
}

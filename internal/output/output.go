// Package output writes report rows to files.
package output

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cuongbtq/onmydesk/internal/dataset"
)

// Output receives a report's header, rows and footer and produces a file
type Output interface {
	Open() error
	Header(header []string) error
	Out(row dataset.Row) error
	Footer(footer []string) error
	Close() error
	Filepath() string
}

// Output kinds accepted by New
const (
	KindCSV      = "csv"
	KindTSV      = "tsv"
	KindXLSX     = "xlsx"
	KindMarkdown = "markdown"
)

var (
	// ErrNotOpen is returned when writing to an output that was not opened
	ErrNotOpen = errors.New("output is not open")

	// ErrUnknownKind is returned by New for an unknown output kind
	ErrUnknownKind = errors.New("unknown output kind")
)

// Kinds lists the output kinds accepted by New
func Kinds() []string {
	return []string{KindCSV, KindTSV, KindXLSX, KindMarkdown}
}

// New creates an output of the given kind writing into dir
func New(kind, dir string) (Output, error) {
	switch strings.ToLower(kind) {
	case KindCSV:
		return NewCSVOutput(dir), nil
	case KindTSV:
		return NewTSVOutput(dir), nil
	case KindXLSX, "excel":
		return NewXLSXOutput(dir), nil
	case KindMarkdown, "md":
		return NewMarkdownOutput(dir), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// fileTarget reserves a unique file in dir named <prefix>-<random><ext>
type fileTarget struct {
	dir    string
	prefix string
	ext    string
	path   string
}

func (t *fileTarget) create() (*os.File, error) {
	dir := t.dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.CreateTemp(dir, t.prefix+"-*"+t.ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	t.path = f.Name()
	return f, nil
}

func (t *fileTarget) Filepath() string {
	return t.path
}

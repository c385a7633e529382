package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/cuongbtq/onmydesk/internal/dataset"
)

func writeAll(t *testing.T, o Output, header []string, rows []dataset.Row, footer []string) string {
	t.Helper()
	require.NoError(t, o.Open())
	require.NoError(t, o.Header(header))
	for _, r := range rows {
		require.NoError(t, o.Out(r))
	}
	require.NoError(t, o.Footer(footer))
	require.NoError(t, o.Close())
	require.NotEmpty(t, o.Filepath())
	return o.Filepath()
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		kind string
		ext  string
	}{
		{KindCSV, ".csv"},
		{KindTSV, ".tsv"},
		{KindXLSX, ".xlsx"},
		{"excel", ".xlsx"},
		{KindMarkdown, ".md"},
		{"MD", ".md"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			o, err := New(tt.kind, dir)
			require.NoError(t, err)
			require.NoError(t, o.Open())
			require.NoError(t, o.Close())

			assert.Equal(t, dir, filepath.Dir(o.Filepath()))
			assert.True(t, strings.HasPrefix(filepath.Base(o.Filepath()), "report-"))
			assert.Equal(t, tt.ext, filepath.Ext(o.Filepath()))
		})
	}

	_, err := New("pdf", dir)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDelimitedOutput(t *testing.T) {
	rows := []dataset.Row{
		{int64(1), "north", 10.5},
		{int64(2), "south, east", nil},
	}

	t.Run("tsv", func(t *testing.T) {
		path := writeAll(t, NewTSVOutput(t.TempDir()), []string{"id", "region", "amount"}, rows, []string{"total", "2"})

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "id\tregion\tamount\n1\tnorth\t10.5\n2\tsouth, east\t\ntotal\t2\n", string(data))
	})

	t.Run("csv quotes separators", func(t *testing.T) {
		path := writeAll(t, NewCSVOutput(t.TempDir()), nil, rows, nil)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "1,north,10.5\n2,\"south, east\",\n", string(data))
	})

	t.Run("write before open", func(t *testing.T) {
		o := NewCSVOutput(t.TempDir())
		assert.ErrorIs(t, o.Out(dataset.Row{1}), ErrNotOpen)
		assert.NoError(t, o.Close())
	})
}

func TestXLSXOutput(t *testing.T) {
	when := time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)
	rows := []dataset.Row{
		{int64(1), "north", 10.5, when},
		{int64(2), []byte("south"), nil, when},
	}

	path := writeAll(t, NewXLSXOutput(t.TempDir()), []string{"id", "region", "amount", "at"}, rows, []string{"end"})

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.Sheets[0]
	assert.Equal(t, SheetName, sheet.Name)
	assert.Equal(t, 4, sheet.MaxRow)

	cell := func(row, col int) string {
		c, err := sheet.Cell(row, col)
		require.NoError(t, err)
		return c.Value
	}

	assert.Equal(t, "id", cell(0, 0))
	assert.Equal(t, "region", cell(0, 1))
	assert.Equal(t, "1", cell(1, 0))
	assert.Equal(t, "north", cell(1, 1))
	assert.Equal(t, "10.5", cell(1, 2))
	assert.Equal(t, "south", cell(2, 1))
	assert.Equal(t, "", cell(2, 2))
	assert.Equal(t, "end", cell(3, 0))
}

func TestMarkdownOutput(t *testing.T) {
	t.Run("with header and footer", func(t *testing.T) {
		rows := []dataset.Row{{"north", 10}, {"south"}}
		path := writeAll(t, NewMarkdownOutput(t.TempDir()), []string{"region", "amount"}, rows, []string{"Generated", "daily"})

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		text := string(data)

		assert.Contains(t, text, "region")
		assert.Contains(t, text, "amount")
		assert.Contains(t, text, "north")
		assert.Contains(t, text, "10")
		assert.Contains(t, text, "Generated daily")
	})

	t.Run("without header", func(t *testing.T) {
		path := writeAll(t, NewMarkdownOutput(t.TempDir()), nil, []dataset.Row{{"a", "b"}}, nil)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Column 1")
		assert.Contains(t, string(data), "Column 2")
	})

	t.Run("escapes pipes and newlines", func(t *testing.T) {
		rows := []dataset.Row{{"x|y", "z"}, {"first\nsecond", "w"}}
		path := writeAll(t, NewMarkdownOutput(t.TempDir()), []string{"a", "b"}, rows, []string{"total|all"})

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		text := string(data)

		var pipeRow string
		for _, line := range strings.Split(text, "\n") {
			if strings.Contains(line, "x") && strings.Contains(line, "z") {
				pipeRow = line
			}
		}
		require.NotEmpty(t, pipeRow)
		assert.Contains(t, pipeRow, `x\|y`)
		// two cells are bounded by three unescaped pipes
		assert.Equal(t, 3, strings.Count(pipeRow, "|")-strings.Count(pipeRow, `\|`))

		assert.Contains(t, text, "first<br>second")
		assert.Contains(t, text, `total\|all`)
	})

	t.Run("no rows", func(t *testing.T) {
		path := writeAll(t, NewMarkdownOutput(t.TempDir()), nil, nil, nil)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "No rows.")
	})
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"bytes", []byte("xyz"), "xyz"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"uint8", uint8(255), "255"},
		{"float without exponent", 1234567890.5, "1234567890.5"},
		{"whole float", float64(3), "3"},
		{"float32", float32(0.25), "0.25"},
		{"bool", true, "true"},
		{"time", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), "2026-01-02 03:04:05"},
		{"struct fallback", struct{ A int }{1}, "{1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

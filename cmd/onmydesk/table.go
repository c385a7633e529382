package main

import (
	"io"

	"github.com/nao1215/markdown"
)

func printTable(w io.Writer, header []string, rows [][]string) error {
	md := markdown.NewMarkdown(w)
	if len(rows) == 0 {
		md.PlainText("Nothing to show.")
	} else {
		md.Table(markdown.TableSet{Header: header, Rows: rows})
	}
	return md.Build()
}

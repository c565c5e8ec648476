package sink

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ppiankov/remitflat/internal/model"
)

// RenderPreview prints the rows of t as a terminal table. total is the size
// of the full result; a footer is printed when t holds only part of it.
func RenderPreview(w io.Writer, t model.Table, total int, opts Options) {
	opts = opts.withDefaults()

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)

	for r := range t.Rows {
		row := make(table.Row, len(t.Columns))
		for c, col := range t.Columns {
			row[c] = previewText(t.Cell(r, col), opts.CellMax)
		}
		tw.AppendRow(row)
	}

	tw.Render()

	if footer := previewFooter(len(t.Rows), total); footer != "" {
		fmt.Fprintln(w, footer)
	}
}

func previewFooter(shown, total int) string {
	if shown >= total {
		return ""
	}
	return fmt.Sprintf("Showing %d of %d records", shown, total)
}

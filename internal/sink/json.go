package sink

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/remitflat/internal/model"
)

// WriteJSON writes the table as an array of objects keyed by column, in
// column order. Cells a row lacks are written as null.
func WriteJSON(w io.Writer, t model.Table) error {
	rows := make([]model.Row, len(t.Rows))
	for r := range t.Rows {
		row := model.NewRow(len(t.Columns))
		for _, col := range t.Columns {
			row.Set(col, t.Cell(r, col))
		}
		rows[r] = row
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

package sink

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ppiankov/remitflat/internal/model"
)

// WriteCSV writes a header line then one record per row
func WriteCSV(w io.Writer, t model.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for r := range t.Rows {
		for c, col := range t.Columns {
			record[c] = CellText(t.Cell(r, col))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv row %d: %w", r+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

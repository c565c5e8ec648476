package sink

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/remitflat/internal/model"
)

const headerRowHeight = 22

// xlsxStyles holds the style ids used by the workbook
type xlsxStyles struct {
	header     int
	text       int
	textEven   int
	number     int
	numberEven int
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

func solidFill(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error

	defs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      solidFill("F2F2F2"),
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.text, &excelize.Style{
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "left"},
		}},
		{&s.textEven, &excelize.Style{
			Fill:      solidFill("FAFAFA"),
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "left"},
		}},
		{&s.number, &excelize.Style{
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.numberEven, &excelize.Style{
			Fill:      solidFill("FAFAFA"),
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
	}

	for _, d := range defs {
		if *d.id, err = f.NewStyle(d.style); err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
	}
	return s, nil
}

func (s xlsxStyles) data(numeric, even bool) int {
	switch {
	case numeric && even:
		return s.numberEven
	case numeric:
		return s.number
	case even:
		return s.textEven
	default:
		return s.text
	}
}

// WriteXLSX writes t as a styled single-sheet workbook: bold shaded header,
// thin borders, banded rows, right-aligned numbers and a frozen header row.
func WriteXLSX(w io.Writer, t model.Table, opts Options) error {
	opts = opts.withDefaults()

	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.Sheet
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}

	for i, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		_ = f.SetCellStyle(sheet, cell, cell, styles.header)
	}
	_ = f.SetRowHeight(sheet, 1, headerRowHeight)

	for r := range t.Rows {
		sheetRow := r + 2
		even := sheetRow%2 == 0
		for c, col := range t.Columns {
			cell, _ := excelize.CoordinatesToCellName(c+1, sheetRow)
			v := t.Cell(r, col)
			if err := f.SetCellValue(sheet, cell, xlsxValue(v)); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
			_, numeric := v.(float64)
			_ = f.SetCellStyle(sheet, cell, cell, styles.data(numeric, even))
		}
	}

	for i, width := range ColumnWidths(t, opts) {
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, name, name, float64(width))
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
		Selection: []excelize.Selection{
			{SQRef: "A2", ActiveCell: "A2", Pane: "bottomLeft"},
		},
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func xlsxValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case model.RawJSON:
		return string(x)
	default:
		return x
	}
}

// ColumnWidths sizes each column from its header and the first WidthSample
// rows. A value longer than everything seen so far caps at MaxColWidth; a
// long header is never cut. Three characters of padding are added.
func ColumnWidths(t model.Table, opts Options) []int {
	opts = opts.withDefaults()

	sample := len(t.Rows)
	if sample > opts.WidthSample {
		sample = opts.WidthSample
	}

	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		longest := utf8.RuneCountInString(col)
		for r := 0; r < sample; r++ {
			n := utf8.RuneCountInString(CellText(t.Cell(r, col)))
			if n > longest {
				if n > opts.MaxColWidth {
					n = opts.MaxColWidth
				}
				longest = n
			}
		}
		widths[i] = longest + 3
	}
	return widths
}

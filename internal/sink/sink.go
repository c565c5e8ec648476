// Package sink writes combined tables to files and terminals.
package sink

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/remitflat/internal/model"
)

// Format is an output file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, name)
}

// Options tune how tables are rendered
type Options struct {
	Sheet       string // Worksheet name (xlsx)
	MaxColWidth int    // Column width cap in characters (xlsx)
	WidthSample int    // Rows sampled when sizing columns (xlsx)
	CellMax     int    // Composite values are cut to this many characters in previews
}

// OptionsFromConfig maps output settings onto sink options
func OptionsFromConfig(cfg model.OutputConfig) Options {
	return Options{
		Sheet:       cfg.Sheet,
		MaxColWidth: cfg.MaxColWidth,
		WidthSample: cfg.WidthSample,
		CellMax:     cfg.PreviewCellMax,
	}
}

func (o Options) withDefaults() Options {
	if o.Sheet == "" {
		o.Sheet = "Combined Data"
	}
	if o.MaxColWidth <= 0 {
		o.MaxColWidth = 50
	}
	if o.WidthSample <= 0 {
		o.WidthSample = 20
	}
	if o.CellMax <= 0 {
		o.CellMax = 50
	}
	return o
}

// Encode writes t to w in the given format
func Encode(w io.Writer, format Format, t model.Table, opts Options) error {
	if len(t.Rows) == 0 {
		return model.ErrNoData
	}

	opts = opts.withDefaults()
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, t, opts)
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	default:
		return fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, format)
	}
}

// WriteFile writes t to path, creating parent directories as needed.
// The file is only replaced once encoding succeeded.
func WriteFile(path string, format Format, t model.Table, opts Options) error {
	if len(t.Rows) == 0 {
		return model.ErrNoData
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".remitflat-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, format, t, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// CellText renders a row value as plain text. nil is the empty string.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNumber(x)
	case model.RawJSON:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// formatNumber prints integers without a fraction and switches to exponent
// notation for very large or small magnitudes.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// truncate cuts s to limit characters, marking the cut with "..."
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}

// previewText is CellText with composite values truncated
func previewText(v any, limit int) string {
	if raw, ok := v.(model.RawJSON); ok {
		return truncate(string(raw), limit)
	}
	return CellText(v)
}

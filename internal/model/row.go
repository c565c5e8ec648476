package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawJSON is a composite value (object or array) kept as compact JSON text.
// It shows up when a field path lands on a nested structure instead of a scalar.
type RawJSON string

// MarshalJSON emits the raw text unchanged
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

// Row is one flat output record. Keys keep insertion order; values are
// nil, bool, float64, string or RawJSON.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow creates an empty row with room for n fields
func NewRow(n int) Row {
	return Row{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set stores a value. An existing key keeps its position and takes the new value.
func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Has reports whether the key is part of the row
func (r Row) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Get returns the value for key and whether the key is present.
// A present key may still hold nil.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the field names in insertion order
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields
func (r Row) Len() int {
	return len(r.keys)
}

// MarshalJSON encodes the row as a JSON object preserving key order.
// Cell text is written as is: <, > and & are not escaped.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		trimNewline(&buf)
		buf.WriteByte(':')
		if err := enc.Encode(r.values[k]); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		trimNewline(&buf)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// trimNewline drops the newline json.Encoder writes after every value
func trimNewline(buf *bytes.Buffer) {
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
		buf.Truncate(n - 1)
	}
}

// ColumnPolicy decides how table columns are derived from rows
type ColumnPolicy string

const (
	// ColumnsFirstRow takes the keys of the first row, matching the spreadsheet export
	ColumnsFirstRow ColumnPolicy = "first"
	// ColumnsUnion takes every key seen, in first-seen order
	ColumnsUnion ColumnPolicy = "union"
)

// Table is the ordered column/row set handed to a sink
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable builds a table from rows using the given column policy
func NewTable(rows []Row, policy ColumnPolicy) Table {
	t := Table{Rows: rows}
	if len(rows) == 0 {
		return t
	}

	if policy != ColumnsUnion {
		t.Columns = rows[0].Keys()
		return t
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		for _, k := range row.keys {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
		}
	}
	return t
}

// Cell returns the value in row i for column, or nil when the row lacks it
func (t Table) Cell(i int, column string) any {
	v, _ := t.Rows[i].Get(column)
	return v
}

// Head returns a table over the first n rows with the same columns
func (t Table) Head(n int) Table {
	if n < 0 || n >= len(t.Rows) {
		return t
	}
	return Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

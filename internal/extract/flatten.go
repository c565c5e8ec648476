package extract

import (
	"strconv"

	"github.com/ppiankov/remitflat/internal/document"
	"github.com/ppiankov/remitflat/internal/model"
)

// Flattener turns arbitrary JSON into rows when a document does not follow
// the remittance layout.
type Flattener struct {
	separator string
}

// NewFlattener creates a flattener joining nested keys with "."
func NewFlattener() *Flattener {
	return &Flattener{separator: "."}
}

// Flatten converts doc into rows:
//   - an array whose first element is an object, array or null passes through, one row per element
//   - an object (or any other array) becomes a single row with dotted keys
//   - a scalar or null becomes a single row {"value": doc}
func (f *Flattener) Flatten(doc document.Document) []model.Row {
	rows, _ := f.FlattenWithCollisions(doc)
	return rows
}

// FlattenWithCollisions is Flatten that also reports compound keys written more
// than once. The later write wins; the key keeps its first column position.
func (f *Flattener) FlattenWithCollisions(doc document.Document) ([]model.Row, []string) {
	switch doc.Kind() {
	case document.Array:
		elems := doc.Elements()
		if len(elems) > 0 && passesThrough(elems[0]) {
			rows := make([]model.Row, len(elems))
			for i, e := range elems {
				rows[i] = e.Row()
			}
			return rows, nil
		}
		return f.flattenComposite(doc)
	case document.Object:
		return f.flattenComposite(doc)
	default:
		row := model.NewRow(1)
		row.Set("value", doc.Value())
		return []model.Row{row}, nil
	}
}

// passesThrough reports whether an array led by first is already row-shaped
func passesThrough(first document.Document) bool {
	switch first.Kind() {
	case document.Object, document.Array, document.Null:
		return true
	}
	return false
}

func (f *Flattener) flattenComposite(doc document.Document) ([]model.Row, []string) {
	row := model.NewRow(doc.Len())
	var collisions []string
	f.flattenInto(&row, doc, "", &collisions)
	return []model.Row{row}, collisions
}

// flattenInto writes doc's leaves into row. Arrays at the top level are keyed by
// position; arrays below it are stored as their JSON text and never expanded.
func (f *Flattener) flattenInto(row *model.Row, doc document.Document, prefix string, collisions *[]string) {
	for _, e := range children(doc) {
		key := e.Key
		if prefix != "" {
			key = prefix + f.separator + e.Key
		}

		switch e.Value.Kind() {
		case document.Object:
			f.flattenInto(row, e.Value, key, collisions)
		case document.Array:
			f.set(row, key, e.Value.JSON(), collisions)
		default:
			f.set(row, key, e.Value.Value(), collisions)
		}
	}
}

func (f *Flattener) set(row *model.Row, key string, value any, collisions *[]string) {
	if row.Has(key) {
		*collisions = append(*collisions, key)
	}
	row.Set(key, value)
}

// children lists an object's entries, or an array's elements keyed "0", "1", ...
func children(doc document.Document) []document.Entry {
	if doc.IsObject() {
		return doc.Entries()
	}
	elems := doc.Elements()
	out := make([]document.Entry, len(elems))
	for i, e := range elems {
		out[i] = document.Entry{Key: strconv.Itoa(i), Value: e}
	}
	return out
}

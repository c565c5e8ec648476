// Package document provides a read-only, order-preserving view over a parsed JSON value.
//
// Object keys are visited in the order they appear in the source text. When a key is
// repeated the last value wins but the key keeps its first position, which is how
// JSON.parse based tooling treats duplicates.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ppiankov/remitflat/internal/model"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Kind classifies a JSON value
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "null"
	}
}

// Document is an immutable JSON value
type Document struct {
	r gjson.Result
}

// Entry is one key/value pair of an object
type Entry struct {
	Key   string
	Value Document
}

// Parse validates data and returns the document it holds
func Parse(data []byte) (Document, error) {
	if !gjson.ValidBytes(data) {
		// gjson only reports validity; encoding/json supplies a readable reason
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return Document{}, err
		}
		return Document{}, errors.New("malformed JSON")
	}
	return Document{r: gjson.ParseBytes(data)}, nil
}

// MustParse is Parse for literals known to be valid; it panics otherwise
func MustParse(text string) Document {
	d, err := Parse([]byte(text))
	if err != nil {
		panic(fmt.Sprintf("document: %v", err))
	}
	return d
}

// Kind returns the value's kind
func (d Document) Kind() Kind {
	switch d.r.Type {
	case gjson.True, gjson.False:
		return Bool
	case gjson.Number:
		return Number
	case gjson.String:
		return String
	case gjson.JSON:
		if d.r.IsArray() {
			return Array
		}
		return Object
	default:
		return Null
	}
}

// IsObject reports whether the value is a JSON object
func (d Document) IsObject() bool {
	return d.Kind() == Object
}

// IsArray reports whether the value is a JSON array
func (d Document) IsArray() bool {
	return d.Kind() == Array
}

// Field looks up key in an object. Non-objects never contain a key.
func (d Document) Field(key string) (Document, bool) {
	if !d.IsObject() {
		return Document{}, false
	}
	var found gjson.Result
	ok := false
	d.r.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found = v
			ok = true
		}
		return true
	})
	return Document{r: found}, ok
}

// Index returns element i of an array
func (d Document) Index(i int) (Document, bool) {
	if !d.IsArray() || i < 0 {
		return Document{}, false
	}
	var found gjson.Result
	ok := false
	n := 0
	d.r.ForEach(func(_, v gjson.Result) bool {
		if n == i {
			found = v
			ok = true
			return false
		}
		n++
		return true
	})
	return Document{r: found}, ok
}

// Len returns the element count of an array or the distinct key count of an object
func (d Document) Len() int {
	switch d.Kind() {
	case Array:
		return len(d.Elements())
	case Object:
		return len(d.Entries())
	default:
		return 0
	}
}

// Elements returns the elements of an array in order
func (d Document) Elements() []Document {
	if !d.IsArray() {
		return nil
	}
	var out []Document
	d.r.ForEach(func(_, v gjson.Result) bool {
		out = append(out, Document{r: v})
		return true
	})
	return out
}

// Entries returns the key/value pairs of an object in document order
func (d Document) Entries() []Entry {
	if !d.IsObject() {
		return nil
	}
	var out []Entry
	pos := make(map[string]int)
	d.r.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if i, dup := pos[key]; dup {
			out[i].Value = Document{r: v}
			return true
		}
		pos[key] = len(out)
		out = append(out, Entry{Key: key, Value: Document{r: v}})
		return true
	})
	return out
}

// Value converts the document into a row value: nil, bool, float64, string,
// or model.RawJSON for objects and arrays.
func (d Document) Value() any {
	switch d.Kind() {
	case Bool:
		return d.r.Bool()
	case Number:
		return d.r.Num
	case String:
		return d.r.Str
	case Object, Array:
		return model.RawJSON(d.JSON())
	default:
		return nil
	}
}

// JSON returns the compact JSON text of the value
func (d Document) JSON() string {
	if !d.r.Exists() {
		return "null"
	}
	return string(pretty.Ugly([]byte(d.r.Raw)))
}

// Row reinterprets the value as a row without flattening: object keys become
// fields, array positions become "0", "1", ... and scalars yield an empty row.
func (d Document) Row() model.Row {
	switch d.Kind() {
	case Object:
		entries := d.Entries()
		row := model.NewRow(len(entries))
		for _, e := range entries {
			row.Set(e.Key, e.Value.Value())
		}
		return row
	case Array:
		elems := d.Elements()
		row := model.NewRow(len(elems))
		for i, e := range elems {
			row.Set(strconv.Itoa(i), e.Value())
		}
		return row
	default:
		return model.NewRow(0)
	}
}

// DecodeRows reads rows previously encoded as a JSON array of objects
func DecodeRows(data []byte) ([]model.Row, error) {
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if !d.IsArray() {
		return nil, fmt.Errorf("decode rows: expected array, got %s", d.Kind())
	}

	elems := d.Elements()
	rows := make([]model.Row, 0, len(elems))
	for i, e := range elems {
		if !e.IsObject() {
			return nil, fmt.Errorf("decode rows: element %d is %s, not object", i, e.Kind())
		}
		rows = append(rows, e.Row())
	}
	return rows, nil
}

package document

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ppiankov/remitflat/internal/model"
)

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"{",
		`{"a":}`,
		`[1,2,]`,
		`{'a':1}`,
	}

	for _, input := range tests {
		if _, err := Parse([]byte(input)); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", input)
		}
	}
}

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{`null`, Null},
		{`true`, Bool},
		{`false`, Bool},
		{`12.5`, Number},
		{`"x"`, String},
		{`{}`, Object},
		{`[]`, Array},
		{` {"a":1} `, Object},
	}

	for _, tt := range tests {
		d, err := Parse([]byte(tt.input))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.input, err)
		}
		if d.Kind() != tt.kind {
			t.Errorf("Parse(%q).Kind() = %s, expected %s", tt.input, d.Kind(), tt.kind)
		}
	}
}

func TestEntries_PreserveOrder(t *testing.T) {
	d := MustParse(`{"zeta":1,"alpha":2,"mid":{"x":true}}`)

	var keys []string
	for _, e := range d.Entries() {
		keys = append(keys, e.Key)
	}

	expected := []string{"zeta", "alpha", "mid"}
	if !reflect.DeepEqual(keys, expected) {
		t.Errorf("expected keys %v, got %v", expected, keys)
	}
}

func TestEntries_DuplicateKeyLastValueFirstPosition(t *testing.T) {
	d := MustParse(`{"a":1,"b":2,"a":3}`)

	entries := d.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "a" || entries[0].Value.Value() != float64(3) {
		t.Errorf("expected a=3 first, got %s=%v", entries[0].Key, entries[0].Value.Value())
	}

	v, ok := d.Field("a")
	if !ok || v.Value() != float64(3) {
		t.Errorf("expected Field(a)=3, got %v (found=%v)", v.Value(), ok)
	}
}

func TestField_NonObject(t *testing.T) {
	for _, input := range []string{`[1]`, `"ID"`, `5`, `null`} {
		if _, ok := MustParse(input).Field("ID"); ok {
			t.Errorf("Field on %s should not find a key", input)
		}
	}
}

func TestField_KeyWithPathSyntax(t *testing.T) {
	d := MustParse(`{"a.b":1,"a":{"b":2},"c*":3}`)

	v, ok := d.Field("a.b")
	if !ok || v.Value() != float64(1) {
		t.Errorf("expected literal key a.b = 1, got %v", v.Value())
	}
	v, ok = d.Field("c*")
	if !ok || v.Value() != float64(3) {
		t.Errorf("expected literal key c* = 3, got %v", v.Value())
	}
}

func TestIndex(t *testing.T) {
	d := MustParse(`["a","b","c"]`)

	v, ok := d.Index(1)
	if !ok || v.Value() != "b" {
		t.Errorf("expected b at index 1, got %v", v.Value())
	}
	if _, ok := d.Index(3); ok {
		t.Error("expected index 3 to be out of range")
	}
	if _, ok := d.Index(-1); ok {
		t.Error("expected negative index to be out of range")
	}
	if _, ok := MustParse(`{"0":1}`).Index(0); ok {
		t.Error("expected Index on object to fail")
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{`null`, nil},
		{`true`, true},
		{`100`, float64(100)},
		{`"S1"`, "S1"},
		{`"a\"b"`, `a"b`},
		{`{ "x" : [1, 2] }`, model.RawJSON(`{"x":[1,2]}`)},
		{`[ 1, 2, 3 ]`, model.RawJSON(`[1,2,3]`)},
	}

	for _, tt := range tests {
		got := MustParse(tt.input).Value()
		if got != tt.expected {
			t.Errorf("Value(%s) = %#v, expected %#v", tt.input, got, tt.expected)
		}
	}
}

func TestJSON_KeepsStringWhitespace(t *testing.T) {
	got := MustParse(`[ "a b" , { "k" : "v  w" } ]`).JSON()
	expected := `["a b",{"k":"v  w"}]`
	if got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestRow(t *testing.T) {
	row := MustParse(`{"b":1,"a":{"c":2}}`).Row()
	if !reflect.DeepEqual(row.Keys(), []string{"b", "a"}) {
		t.Errorf("unexpected keys %v", row.Keys())
	}
	if v, _ := row.Get("a"); v != model.RawJSON(`{"c":2}`) {
		t.Errorf("expected nested object as raw JSON, got %#v", v)
	}

	arrRow := MustParse(`[10,20]`).Row()
	if !reflect.DeepEqual(arrRow.Keys(), []string{"0", "1"}) {
		t.Errorf("unexpected array row keys %v", arrRow.Keys())
	}

	if MustParse(`7`).Row().Len() != 0 {
		t.Error("expected empty row for scalar")
	}
}

func TestDecodeRows_RoundTrip(t *testing.T) {
	r1 := model.NewRow(3)
	r1.Set("ClaimID", "C1")
	r1.Set("Net", float64(100))
	r1.Set("Comments", nil)
	r2 := model.NewRow(1)
	r2.Set("a.b", "[1,2,3]")

	data, err := json.Marshal([]model.Row{r1, r2})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	rows, err := DecodeRows(data)
	if err != nil {
		t.Fatalf("DecodeRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !reflect.DeepEqual(rows[0].Keys(), []string{"ClaimID", "Net", "Comments"}) {
		t.Errorf("unexpected keys %v", rows[0].Keys())
	}
	if v, ok := rows[0].Get("Comments"); !ok || v != nil {
		t.Errorf("expected present nil Comments, got %v (present=%v)", v, ok)
	}
	if v, _ := rows[1].Get("a.b"); v != "[1,2,3]" {
		t.Errorf("expected array text to stay a string, got %#v", v)
	}
}

func TestDecodeRows_Invalid(t *testing.T) {
	for _, input := range []string{`{}`, `[1]`, `not json`} {
		if _, err := DecodeRows([]byte(input)); err == nil {
			t.Errorf("DecodeRows(%s): expected error", input)
		}
	}
}

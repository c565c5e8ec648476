package extract

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ppiankov/remitflat/internal/document"
	"github.com/ppiankov/remitflat/internal/model"
)

func flattenJSON(t *testing.T, input string) string {
	t.Helper()
	rows := NewFlattener().Flatten(document.MustParse(input))
	out, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("marshal rows: %v", err)
	}
	return string(out)
}

func TestFlattener_Cases(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "flat object is unchanged",
			input:    `{"b":1,"a":"x","c":null,"d":true}`,
			expected: `[{"b":1,"a":"x","c":null,"d":true}]`,
		},
		{
			name:     "array leaf becomes JSON text",
			input:    `{"a":{"b":[1,2,3]}}`,
			expected: `[{"a.b":"[1,2,3]"}]`,
		},
		{
			name:     "nested objects use dotted keys",
			input:    `{"x":{"y":{"z":1},"w":2},"v":3}`,
			expected: `[{"x.y.z":1,"x.w":2,"v":3}]`,
		},
		{
			name:     "arrays of objects inside objects are not expanded",
			input:    `{"items":[{"id":1},{"id":2}]}`,
			expected: `[{"items":"[{\"id\":1},{\"id\":2}]"}]`,
		},
		{
			name:     "empty nested object contributes nothing",
			input:    `{"a":{},"b":1}`,
			expected: `[{"b":1}]`,
		},
		{
			name:     "array of objects passes through",
			input:    `[{"a":1,"n":{"x":1}},{"b":2}]`,
			expected: `[{"a":1,"n":{"x":1}},{"b":2}]`,
		},
		{
			name:     "passthrough keys elements that are not objects",
			input:    `[{"a":1},[5,6],7]`,
			expected: `[{"a":1},{"0":5,"1":6},{}]`,
		},
		{
			name:     "leading null counts as a row",
			input:    `[null,{"a":1}]`,
			expected: `[{},{"a":1}]`,
		},
		{
			name:     "array of scalars is keyed by position",
			input:    `[1,[2,3],{"a":4}]`,
			expected: `[{"0":1,"1":"[2,3]","2.a":4}]`,
		},
		{
			name:     "empty array yields one empty row",
			input:    `[]`,
			expected: `[{}]`,
		},
		{
			name:     "string is wrapped",
			input:    `"hello"`,
			expected: `[{"value":"hello"}]`,
		},
		{
			name:     "number is wrapped",
			input:    `3.5`,
			expected: `[{"value":3.5}]`,
		},
		{
			name:     "null is wrapped",
			input:    `null`,
			expected: `[{"value":null}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flattenJSON(t, tt.input); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFlattener_CollisionLastWriteWins(t *testing.T) {
	doc := document.MustParse(`{"a.b":1,"a":{"b":2},"c":3}`)

	rows, collisions := NewFlattener().FlattenWithCollisions(doc)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if !reflect.DeepEqual(row.Keys(), []string{"a.b", "c"}) {
		t.Errorf("expected colliding key to keep first position, got %v", row.Keys())
	}
	if v, _ := row.Get("a.b"); v != float64(2) {
		t.Errorf("expected later value 2 to win, got %v", v)
	}
	if !reflect.DeepEqual(collisions, []string{"a.b"}) {
		t.Errorf("expected collision on a.b, got %v", collisions)
	}
}

func TestFlattener_NoCollisionsOnCleanInput(t *testing.T) {
	_, collisions := NewFlattener().FlattenWithCollisions(document.MustParse(`{"a":{"b":1},"c":2}`))
	if len(collisions) != 0 {
		t.Errorf("expected no collisions, got %v", collisions)
	}
}

func TestFlattener_FlatObjectIdempotent(t *testing.T) {
	input := `{"ID":"C1","Net":100,"Denied":false,"Note":null}`
	doc := document.MustParse(input)

	rows := NewFlattener().Flatten(doc)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	expected := doc.Row()
	if !reflect.DeepEqual(rows[0].Keys(), expected.Keys()) {
		t.Errorf("expected keys %v, got %v", expected.Keys(), rows[0].Keys())
	}
	for _, k := range expected.Keys() {
		want, _ := expected.Get(k)
		got, _ := rows[0].Get(k)
		if got != want {
			t.Errorf("key %s: expected %v, got %v", k, want, got)
		}
	}
}

func TestFlattener_PassthroughKeepsNestedValues(t *testing.T) {
	rows := NewFlattener().Flatten(document.MustParse(`[{"n":{"x":1}}]`))
	if v, _ := rows[0].Get("n"); v != model.RawJSON(`{"x":1}`) {
		t.Errorf("expected nested object kept as raw JSON, got %#v", v)
	}
}

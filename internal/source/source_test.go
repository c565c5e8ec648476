package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/remitflat/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"claims.json", "claims"},
		{"/data/in/ra-2024-01.json", "ra-2024-01"},
		{"archive.json.json", "archive.json"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.path); got != tt.expected {
			t.Errorf("DisplayName(%q): expected %q, got %q", tt.path, tt.expected, got)
		}
	}
}

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "batch1.json", `{"a":1}`)

	src := NewLoader(nil).File(path)
	if src.Err != nil {
		t.Fatalf("unexpected error: %v", src.Err)
	}
	if src.Name != "batch1" {
		t.Errorf("expected name batch1, got %s", src.Name)
	}
	if string(src.Data) != `{"a":1}` {
		t.Errorf("unexpected data %q", src.Data)
	}
}

func TestLoader_RejectsNonJSONName(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", `{"a":1}`)

	src := NewLoader(nil).File(path)
	if !errors.Is(src.Err, model.ErrNotJSONFile) {
		t.Errorf("expected ErrNotJSONFile, got %v", src.Err)
	}
	if src.Name != "notes.txt" {
		t.Errorf("expected full base name for rejected file, got %s", src.Name)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	src := NewLoader(nil).File(filepath.Join(t.TempDir(), "gone.json"))
	if !errors.Is(src.Err, model.ErrReadFailed) {
		t.Errorf("expected ErrReadFailed, got %v", src.Err)
	}
}

func TestLoader_DirectoryExpandsInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{}`)
	writeFile(t, dir, "a.json", `{}`)
	writeFile(t, dir, "c.txt", `{}`)
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	sources := NewLoader(nil).Load([]string{dir})

	var names []string
	for _, s := range sources {
		names = append(names, s.Name)
	}
	if got := strings.Join(names, ","); got != "a,b" {
		t.Errorf("expected a,b got %s", got)
	}
}

func TestLoader_StdinNumbering(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "one.json", `{}`)
	bad := writeFile(t, dir, "two.csv", `x`)

	l := NewLoader(strings.NewReader(`{"pasted":true}`))
	sources := l.Load([]string{good, bad, Stdin})

	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(sources))
	}

	// The rejected file does not count towards the numbering
	pasted := sources[2]
	if pasted.Name != "manual_input_2" {
		t.Errorf("expected manual_input_2, got %s", pasted.Name)
	}
	if string(pasted.Data) != `{"pasted":true}` {
		t.Errorf("unexpected pasted data %q", pasted.Data)
	}
	if pasted.Path != "" {
		t.Errorf("expected empty path for pasted input, got %s", pasted.Path)
	}
}

func TestLoader_Text(t *testing.T) {
	l := NewLoader(nil)
	first := l.Text([]byte(`1`))
	second := l.Text([]byte(`2`))

	if first.Name != "manual_input_1" || second.Name != "manual_input_2" {
		t.Errorf("unexpected names %s, %s", first.Name, second.Name)
	}
}

package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := Run{
			ID:         id,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Second),
			Command:    "convert",
			Output:     "combined_data.xlsx",
			Format:     "xlsx",
			Items:      2,
			Failed:     1,
			Rows:       5,
		}
		items := []Item{
			{Position: 0, Name: "jan", Strategy: "remittance", Rows: 5},
			{Position: 1, Name: "broken", Error: "broken: invalid JSON format: unexpected end"},
		}
		if err := s.Record(ctx, run, items); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
	if !runs[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("unexpected start time %v", runs[0].StartedAt)
	}
	if runs[0].Rows != 5 || runs[0].Failed != 1 || runs[0].Format != "xlsx" {
		t.Errorf("unexpected run fields %+v", runs[0])
	}

	items, err := s.Items(ctx, "run-a")
	if err != nil {
		t.Fatalf("items failed: %v", err)
	}
	if len(items) != 2 || items[0].Name != "jan" || items[1].Error == "" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestStore_DuplicateRunRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	run := Run{ID: "dup", StartedAt: time.Now(), FinishedAt: time.Now(), Command: "convert"}

	if err := s.Record(ctx, run, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, run, []Item{{Name: "x"}}); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}

	items, _ := s.Items(ctx, "dup")
	if len(items) != 0 {
		t.Errorf("expected failed record to leave no items, got %d", len(items))
	}
}

func TestStore_PruneCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = s.Record(ctx, Run{ID: "old", StartedAt: old, FinishedAt: old, Command: "convert"},
		[]Item{{Position: 0, Name: "a"}})
	_ = s.Record(ctx, Run{ID: "new", StartedAt: time.Now(), FinishedAt: time.Now(), Command: "watch"}, nil)

	n, err := s.Prune(ctx, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned run, got %d", n)
	}

	items, _ := s.Items(ctx, "old")
	if len(items) != 0 {
		t.Errorf("expected items removed with their run, got %d", len(items))
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Record(context.Background(), Run{ID: "r1", StartedAt: time.Now(), FinishedAt: time.Now(), Command: "convert"}, nil)
	_ = s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	runs, _ := s2.ListRuns(context.Background(), 10)
	if len(runs) != 1 {
		t.Errorf("expected run to persist, got %d", len(runs))
	}
}

func TestURIPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/home/u/.remitflat/history.db", "/home/u/.remitflat/history.db"},
		{"/tmp/runs?v=2/history.db", "/tmp/runs%3fv=2/history.db"},
		{"/tmp/#1/history.db", "/tmp/%231/history.db"},
		{"/tmp/100%/history.db", "/tmp/100%25/history.db"},
	}
	for _, tt := range tests {
		if got := uriPath(tt.in); got != tt.want {
			t.Errorf("uriPath(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestOpen_PathWithURIMetacharacters(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "runs?v=2#x%20", "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := s.Record(context.Background(), Run{ID: "r1", StartedAt: time.Now(), FinishedAt: time.Now(), Command: "convert"}, nil); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	_ = s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database at %s: %v", path, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the history directory under %s, got %d entries", root, len(entries))
	}
}

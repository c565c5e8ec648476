package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		event    fsnotify.Event
		expected bool
	}{
		{fsnotify.Event{Name: "/in/a.json", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/in/a.json", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/in/a.json", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "/in/a.json", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/in/a.txt", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/in/a.json.swp", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		if got := relevant(tt.event); got != tt.expected {
			t.Errorf("relevant(%v): expected %v, got %v", tt.event, tt.expected, got)
		}
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := New(dir, 100*time.Millisecond, quietLogger()).Watch(ctx)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	for _, name := range []string{"b.json", "a.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`{}`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case c := <-changes:
		if len(c.Paths) != 2 {
			t.Fatalf("expected 2 paths in one change, got %v", c.Paths)
		}
		if filepath.Base(c.Paths[0]) != "a.json" || filepath.Base(c.Paths[1]) != "b.json" {
			t.Errorf("expected sorted json paths, got %v", c.Paths)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	changes, err := New(t.TempDir(), 10*time.Millisecond, quietLogger()).Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-changes:
		if ok {
			t.Error("expected channel to close without a change")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent"), 0, quietLogger()).Watch(context.Background())
	if err == nil {
		t.Error("expected error watching a missing directory")
	}
}

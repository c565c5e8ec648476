// Package watch reports batches of changed JSON files in a directory.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is a debounced burst of file events
type Change struct {
	Paths []string // Affected .json files, sorted
	At    time.Time
}

// Watcher watches one directory (not recursive)
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for dir. Events closer together than debounce are
// reported as a single Change.
func New(dir string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, debounce: debounce, logger: logger}
}

// Watch starts watching and returns a channel of changes. The channel is
// closed when ctx ends.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}

	out := make(chan Change, 1)
	go w.loop(ctx, fw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- Change) {
	defer close(out)
	defer fw.Close()

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		change := Change{At: time.Now()}
		for p := range pending {
			change.Paths = append(change.Paths, p)
		}
		sort.Strings(change.Paths)
		pending = make(map[string]struct{})

		select {
		case out <- change:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case e, ok := <-fw.Events:
			if !ok {
				return
			}
			if !relevant(e) {
				continue
			}
			w.logger.Debug("watch.event", "path", e.Name, "op", e.Op.String())
			pending[e.Name] = struct{}{}

			if w.debounce <= 0 {
				flush()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			flush()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch.error", "dir", w.dir, "err", err)
		}
	}
}

// relevant keeps content changes to .json files
func relevant(e fsnotify.Event) bool {
	if !strings.HasSuffix(filepath.Base(e.Name), ".json") {
		return false
	}
	return e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

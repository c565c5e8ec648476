// Package history keeps a local log of conversion runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded invocation
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Command    string // convert or watch
	Output     string
	Format     string
	Items      int
	Failed     int
	Rows       int
}

// Item is the outcome of one source within a run
type Item struct {
	Position int
	Name     string
	Strategy string
	Rows     int
	Error    string
}

// Store is the run log
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", uriPath(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &Store{db: db}, nil
}

// uriPath escapes the characters that would end the path part of a file: URI
var uriPath = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a run and its items in one transaction
func (s *Store) Record(ctx context.Context, run Run, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs(id, started_at, finished_at, command, output, format, items, failed, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Command,
		run.Output, run.Format, run.Items, run.Failed, run.Rows)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, it := range items {
		_, err := tx.ExecContext(ctx, `INSERT INTO run_items(run_id, position, name, strategy, row_count, error)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, it.Position, it.Name, it.Strategy, it.Rows, it.Error)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", it.Name, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, command, output, format, items, failed, row_count
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Command, &r.Output, &r.Format, &r.Items, &r.Failed, &r.Rows); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Items returns the items of one run in input order
func (s *Store) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT position, name, strategy, row_count, error
		FROM run_items WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Position, &it.Name, &it.Strategy, &it.Rows, &it.Error); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Prune deletes runs started before cutoff and returns how many were removed
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Timestamps are fixed-width UTC text so they sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite record of every download task outcome so
// past runs can be listed and exported.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/examfetch/pkg/types"
)

const defaultLimit = 50

// Store manages the history database.
type Store struct {
	db *sql.DB
	// mu serializes writers; download tasks record concurrently.
	mu sync.Mutex
}

// Open opens or creates the history database at path and its schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS downloads (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			course TEXT NOT NULL,
			site TEXT NOT NULL,
			semester TEXT NOT NULL,
			exam_type TEXT NOT NULL,
			content TEXT NOT NULL,
			url TEXT NOT NULL,
			path TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_course ON downloads(course)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_run ON downloads(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts one download outcome. A zero RecordedAt is set to now.
func (s *Store) Record(ctx context.Context, rec types.DownloadRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (run_id, course, site, semester, exam_type, content, url, path, status, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Course, string(rec.Site), rec.Semester, rec.ExamType,
		string(rec.Content), rec.URL, rec.Path, string(rec.Status), rec.Error,
		rec.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", rec.Path, err)
	}
	return nil
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	RunID  string
	Course string
	Site   types.Site
	Status types.DownloadStatus
	// Limit caps the number of rows (default 50).
	Limit int
}

// List returns matching records, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]types.DownloadRecord, error) {
	var where []string
	var args []any
	add := func(col, val string) {
		if val != "" {
			where = append(where, col+" = ?")
			args = append(args, val)
		}
	}
	add("run_id", f.RunID)
	add("course", f.Course)
	add("site", string(f.Site))
	add("status", string(f.Status))

	query := `SELECT run_id, course, site, semester, exam_type, content, url, path, status, error, recorded_at FROM downloads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	query += " ORDER BY rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []types.DownloadRecord
	for rows.Next() {
		var rec types.DownloadRecord
		var site, content, status, recordedAt string
		var errText sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Course, &site, &rec.Semester, &rec.ExamType,
			&content, &rec.URL, &rec.Path, &status, &errText, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.Site = types.Site(site)
		rec.Content = types.ContentType(content)
		rec.Status = types.DownloadStatus(status)
		rec.Error = errText.String
		if t, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			rec.RecordedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Export writes records to w as a YAML list.
func Export(w io.Writer, records []types.DownloadRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

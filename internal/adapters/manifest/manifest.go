// Package manifest records every skimmed sample of every run in a SQLite
// database.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/tauskim/pkg/logger"
)

// Status of one sample within a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is one row of the skims table.
type Entry struct {
	ID            int64     `json:"id"`
	RunID         string    `json:"run_id"`
	Sample        string    `json:"sample"`
	Profile       string    `json:"profile"`
	Weight        float64   `json:"weight"`
	EventsRead    int64     `json:"events_read"`
	EventsWritten int64     `json:"events_written"`
	Output        string    `json:"output"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at,omitzero"`
}

// Store is the manifest database.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
	logger logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens or creates the database at path and its schema.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	// Samples finish concurrently; SQLite takes one writer at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger.Get().Named("manifest")}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create manifest schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS skims (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			sample TEXT NOT NULL,
			profile TEXT NOT NULL,
			weight REAL NOT NULL,
			events_read INTEGER NOT NULL DEFAULT 0,
			events_written INTEGER NOT NULL DEFAULT 0,
			output TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skims_run_id ON skims(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_skims_sample ON skims(sample)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Start inserts a running entry and returns its id. StartedAt defaults to now.
func (s *Store) Start(ctx context.Context, e Entry) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO skims (run_id, sample, profile, weight, output, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Sample, e.Profile, e.Weight, e.Output, string(StatusRunning), formatTime(e.StartedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", e.Sample, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", e.Sample, err)
	}
	s.logger.Debug(ctx, "sample started",
		logger.Int64("id", id),
		logger.String("run_id", e.RunID),
		logger.String("sample", e.Sample),
	)
	return id, nil
}

// Finish closes an entry. A nil runErr marks it succeeded, anything else
// failed with the error text.
func (s *Store) Finish(ctx context.Context, id, eventsRead, eventsWritten int64, runErr error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE skims SET events_read = ?, events_written = ?, status = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		eventsRead, eventsWritten, string(status), msg, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// Filter narrows History. Zero values match everything; Limit <= 0 means no limit.
type Filter struct {
	RunID  string
	Sample string
	Limit  int
}

// History returns entries newest first.
func (s *Store) History(ctx context.Context, f Filter) ([]Entry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	query := `SELECT id, run_id, sample, profile, weight, events_read, events_written,
		output, status, error, started_at, finished_at
		FROM skims WHERE (? = '' OR run_id = ?) AND (? = '' OR sample = ?)
		ORDER BY id DESC`
	args := []any{f.RunID, f.RunID, f.Sample, f.Sample}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                 Entry
			status            string
			started, finished string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Sample, &e.Profile, &e.Weight,
			&e.EventsRead, &e.EventsWritten, &e.Output, &status, &e.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Status = Status(status)
		e.StartedAt = parseTime(started)
		e.FinishedAt = parseTime(finished)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Close releases the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Package history keeps completed assessments in SQLite so they can be
// listed and retrieved after the process that produced them exits.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/compliancewatch/internal/assess"
)

// timeLayout sorts lexically; times are stored in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned by Get for an unknown assessment id.
var ErrNotFound = errors.New("assessment not found")

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	category    TEXT NOT NULL,
	subject     TEXT,
	level       TEXT NOT NULL,
	probability REAL NOT NULL,
	signals     TEXT NOT NULL,
	backend     TEXT,
	result_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessments_created ON assessments(created_at);
CREATE INDEX IF NOT EXISTS idx_assessments_level ON assessments(level);
`

// Entry is a summary row.
type Entry struct {
	ID          string    `json:"assessment_id"`
	CreatedAt   time.Time `json:"created_at"`
	Category    string    `json:"category"`
	Subject     string    `json:"subject"`
	Level       string    `json:"level"`
	Probability float64   `json:"probability"`
	Signals     []string  `json:"signals"`
	Backend     string    `json:"backend"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Category string
	Level    string
	Since    time.Time
	Limit    int // default 20
}

// Store is an assessment history database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, goerr.Wrap(err, "failed to create history directory", goerr.V("path", path))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open history database", goerr.V("path", path))
	}
	// One connection: keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"}
	if path == ":memory:" {
		pragmas = pragmas[1:]
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, goerr.Wrap(err, "failed to configure history database", goerr.V("pragma", p))
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to create history schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a completed assessment. Re-recording the same id replaces
// the row.
func (s *Store) Record(ctx context.Context, r *assess.Result, backend string) error {
	signals, err := json.Marshal(r.SignalCodes())
	if err != nil {
		return goerr.Wrap(err, "failed to marshal signals")
	}
	full, err := json.Marshal(r)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO assessments (id, created_at, category, subject, level, probability, signals, backend, result_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.AssessmentID,
		r.Timestamp.UTC().Format(timeLayout),
		string(r.Category),
		nullIfEmpty(r.Subject()),
		string(r.Risk.Level),
		r.Risk.Probability,
		string(signals),
		nullIfEmpty(backend),
		string(full),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to record assessment", goerr.V("id", r.AssessmentID))
	}
	return nil
}

// List returns the newest matching entries first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Level != "" {
		where = append(where, "level = ?")
		args = append(args, f.Level)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, created_at, category, COALESCE(subject, ''), level, probability, signals, COALESCE(backend, '') FROM assessments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assessments")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			created string
			signals string
		)
		if err := rows.Scan(&e.ID, &created, &e.Category, &e.Subject, &e.Level, &e.Probability, &signals, &e.Backend); err != nil {
			return nil, goerr.Wrap(err, "failed to scan assessment row")
		}
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		if err := json.Unmarshal([]byte(signals), &e.Signals); err != nil {
			e.Signals = []string{}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate assessments")
	}
	return entries, nil
}

// Get returns the full stored result.
func (s *Store) Get(ctx context.Context, id string) (*assess.Result, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT result_json FROM assessments WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "no such assessment", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read assessment", goerr.V("id", id))
	}

	var r assess.Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, goerr.Wrap(err, "failed to decode stored assessment", goerr.V("id", id))
	}
	return &r, nil
}

// Counts returns the number of stored assessments per level.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT level, COUNT(*) FROM assessments GROUP BY level`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count assessments")
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			level string
			n     int
		)
		if err := rows.Scan(&level, &n); err != nil {
			return nil, goerr.Wrap(err, "failed to scan count row")
		}
		out[level] = n
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

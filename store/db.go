package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// Database configuration
	DBFileName = "mcp-mqtt.db"
	// DefaultHistoryLimit bounds Recent when the caller passes no limit.
	DefaultHistoryLimit = 50

	// timeLayout is fixed width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Outcomes recorded for a call.
const (
	OutcomeOK            = "ok"
	OutcomeToolError     = "tool_error"
	OutcomeInvalidParams = "invalid_params"
	OutcomeNotFound      = "not_found"
	OutcomeReadError     = "read_error"
)

// Entry is one tools/call or resources/read handled by the server.
type Entry struct {
	ID       int64         `json:"id" yaml:"id"`
	At       time.Time     `json:"at" yaml:"at"`
	ClientID string        `json:"client_id" yaml:"client_id"`
	Method   string        `json:"method" yaml:"method"`
	Target   string        `json:"target" yaml:"target"`
	Outcome  string        `json:"outcome" yaml:"outcome"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Journal persists entries in SQLite.
type Journal struct {
	db *sql.DB
}

// InitDatabase opens (creating if needed) the journal at path. ":memory:"
// gives a private in-memory journal.
func InitDatabase(path string) (*Journal, error) {
	if path == "" {
		path = DBFileName
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection so ":memory:" is shared and writes are serialized
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Journal{db: db}, nil
}

// createTables creates all required database tables if they don't exist
func createTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS calls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			client_id TEXT NOT NULL,
			method TEXT NOT NULL,
			target TEXT NOT NULL,
			outcome TEXT NOT NULL,
			duration_ns INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS calls_at_idx ON calls(at)`,
	}
	for _, stmt := range tables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record appends e. A zero At is stamped with the current time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO calls(at, client_id, method, target, outcome, duration_ns, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.At.UTC().Format(timeLayout), e.ClientID, e.Method, e.Target, e.Outcome, int64(e.Duration), e.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record call: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, client_id, method, target, outcome, duration_ns, detail FROM calls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e   Entry
			at  string
			dur int64
		)
		if err := rows.Scan(&e.ID, &at, &e.ClientID, &e.Method, &e.Target, &e.Outcome, &dur, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", at, err)
		}
		e.Duration = time.Duration(dur)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calls: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than cutoff and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM calls WHERE at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune calls: %w", err)
	}
	return res.RowsAffected()
}

func (j *Journal) Close() error {
	return j.db.Close()
}

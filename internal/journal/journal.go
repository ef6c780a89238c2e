// Package journal implements the SPEC_FULL §C.3 event/job-outcome
// history: a small SQLite-backed store the engine appends to as events
// finish and job instances reach their terminal waiting state, queried
// back through the EventHistory control message. It has no equivalent
// in original upstart (which keeps no persistent history); the schema
// and Open/migrate shape follow the teacher's own db.go.
package journal

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ubports/upstart/internal/engine"
	_ "modernc.org/sqlite"
)

var _ engine.Journal = (*Store)(nil)

// Store wraps the SQLite connection backing the journal.
type Store struct {
	conn *sql.DB
}

// Open creates or opens a SQLite database at path, enabling WAL mode and
// running the journal's own (much narrower than the teacher's) schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: enable WAL mode: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.conn.Close() }

func (s *Store) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	args_joined TEXT NOT NULL,
	env_joined  TEXT NOT NULL,
	failed     INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS job_outcomes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	instance   TEXT NOT NULL,
	failed     INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_name ON events(name);
CREATE INDEX IF NOT EXISTS idx_job_outcomes_name ON job_outcomes(name);
`
	_, err := s.conn.Exec(schema)
	return err
}

// RecordEvent appends one finished event (§4.5's "exactly one
// EventFinished is eventually produced") to the journal. args/env are
// stored as a simple join rather than a full JSON array since neither
// ever contains the separator upstart's own event args/env use ("\x1f"
// is never a legal byte in either, both being built from shell-safe
// KEY=VALUE and positional argument strings).
func (s *Store) RecordEvent(name string, args, env []string, failed bool) {
	s.exec("INSERT INTO events (name, args_joined, env_joined, failed) VALUES (?, ?, ?, ?)",
		name, encodeList(args), encodeList(env), failed)
}

// RecordJobOutcome appends one job instance's terminal (waiting) outcome.
func (s *Store) RecordJobOutcome(name, instance string, failed bool) {
	s.exec("INSERT INTO job_outcomes (name, instance, failed) VALUES (?, ?, ?)", name, instance, failed)
}

func (s *Store) exec(query string, args ...any) {
	if _, err := s.conn.Exec(query, args...); err != nil {
		// The journal is a supplement, not a safety-critical path (§C.3);
		// a write failure must never block supervision, only be logged by
		// the caller if it cares. Errors are deliberately swallowed here
		// the same way the engine's own notify sends log-and-continue on
		// failure rather than propagating.
		_ = err
	}
}

// Query returns the most recent rows (events only; job outcomes aren't
// surfaced through EventHistory, which is event-shaped by definition)
// whose name matches nameGlob, newest first, bounded by limit (0 means
// unbounded). hasGlob false matches every row.
func (s *Store) Query(nameGlob string, hasGlob bool, limit uint32) ([]engine.JournalEntry, error) {
	query := "SELECT name, args_joined, env_joined, failed FROM events"
	var args []any
	if hasGlob && nameGlob != "" && !isWildcardAll(nameGlob) {
		query += " WHERE name GLOB ?"
		args = append(args, nameGlob)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []engine.JournalEntry
	for rows.Next() {
		var e engine.JournalEntry
		var argsJoined, envJoined string
		var failedInt int
		if err := rows.Scan(&e.Name, &argsJoined, &envJoined, &failedInt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Args = decodeList(argsJoined)
		e.Env = decodeList(envJoined)
		e.Failed = failedInt != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func isWildcardAll(pattern string) bool {
	return pattern == "*"
}

// listSep is a unit separator byte, never legal in a shell argument or
// a KEY=VALUE environment entry, so a plain join/split round-trips
// without escaping.
const listSep = "\x1f"

func encodeList(items []string) string { return strings.Join(items, listSep) }

func decodeList(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, listSep)
}

// DefaultPath returns the journal database path under dir (the same
// directory the daemon keeps its PID file and control socket state in).
func DefaultPath(dir string) string { return filepath.Join(dir, "journal.db") }

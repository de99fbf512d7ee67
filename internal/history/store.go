// Package history persists REPL session transcripts to a SQL-backed store,
// selecting the driver from the DSN scheme.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/google/uuid"
)

// Entry is one recorded REPL interaction.
type Entry struct {
	SessionID  string
	Seq        int
	Source     string
	Result     string
	IsError    bool
	RecordedAt time.Time
}

// Store records REPL session history to a SQL database. A nil *Store is
// valid and silently discards Record calls, so the REPL can run the same
// code path with or without a -history-dsn flag.
type Store struct {
	db *sql.DB
}

// Open opens a history store from dsn. The scheme before "://" selects the
// driver: "sqlite" for github.com/mattn/go-sqlite3, "mysql" for
// github.com/go-sql-driver/mysql. The schema is created if missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, source, err := splitDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to history store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func splitDSN(dsn string) (driver, source string, err error) {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return "", "", fmt.Errorf("invalid history DSN %q: expected scheme://...", dsn)
	}
	switch scheme {
	case "sqlite":
		return "sqlite3", rest, nil
	case "mysql":
		return "mysql", rest, nil
	default:
		return "", "", fmt.Errorf("unsupported history DSN scheme %q", scheme)
	}
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS session_history (
  session_id TEXT NOT NULL,
  seq        INTEGER NOT NULL,
  source     TEXT NOT NULL,
  result     TEXT NOT NULL,
  is_error   BOOLEAN NOT NULL,
  recorded_at TEXT NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("migrate history schema: %w", err)
	}
	return nil
}

// NewSessionID generates a fresh session identifier for a new REPL run.
func NewSessionID() string {
	return uuid.NewString()
}

// Record appends one entry to the history store. It is a no-op on a nil
// Store.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_history (session_id, seq, source, result, is_error, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Seq, e.Source, e.Result, e.IsError, e.RecordedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	return nil
}

// Recent returns the last n entries for sessionID, oldest first.
func (s *Store) Recent(ctx context.Context, sessionID string, n int) ([]Entry, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, source, result, is_error, recorded_at FROM session_history
		 WHERE session_id = ? ORDER BY seq DESC LIMIT ?`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt string
		if err := rows.Scan(&e.Seq, &e.Source, &e.Result, &e.IsError, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.SessionID = sessionID
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		entries = append(entries, e)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, rows.Err()
}

// Close closes the underlying database connection. A no-op on a nil Store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Package history persists console command history in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/tOgg1/dmxctl/internal/logging"
)

const (
	retryAttempts = 3
	retryBackoff  = 50 * time.Millisecond
)

// Entry is one recorded console command.
type Entry struct {
	ID      string
	Command string
	RanAt   time.Time
}

// Store is the SQLite-backed command history.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	store := &Store{db: db, log: logging.Component("history")}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	store.log.Debug().Str("path", path).Msg("history store opened")
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS history_entries (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			ran_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS history_entries_ran_at_idx ON history_entries(ran_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure history schema: %w", err)
		}
	}
	return nil
}

// Append records a command. Blank commands and immediate repeats of the
// previous command are skipped.
func (s *Store) Append(ctx context.Context, command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}

	last, err := s.last(ctx)
	if err != nil {
		return err
	}
	if last == command {
		return nil
	}

	entry := Entry{
		ID:      uuid.New().String(),
		Command: command,
		RanAt:   time.Now().UTC(),
	}

	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO history_entries (id, command, ran_at) VALUES (?, ?, ?)`,
			entry.ID, entry.Command, entry.RanAt.Format(time.RFC3339Nano))
		return err
	})
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, ran_at FROM history_entries ORDER BY ran_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search returns up to limit entries containing the substring, newest first.
func (s *Store) Search(ctx context.Context, substring string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(substring) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, ran_at FROM history_entries
		 WHERE command LIKE ? ESCAPE '\'
		 ORDER BY ran_at DESC, id DESC LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Prune deletes the oldest entries beyond max, returning how many were
// removed.
func (s *Store) Prune(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}
	var removed int64
	err := withRetry(ctx, func() error {
		result, err := s.db.ExecContext(ctx,
			`DELETE FROM history_entries WHERE id NOT IN (
				SELECT id FROM history_entries ORDER BY ran_at DESC, id DESC LIMIT ?
			)`, max)
		if err != nil {
			return err
		}
		removed, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	if removed > 0 {
		s.log.Debug().Int64("removed", removed).Msg("pruned history entries")
	}
	return int(removed), nil
}

func (s *Store) last(ctx context.Context) (string, error) {
	var command string
	err := s.db.QueryRowContext(ctx,
		`SELECT command FROM history_entries ORDER BY ran_at DESC, id DESC LIMIT 1`).Scan(&command)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last history entry: %w", err)
	}
	return command, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var ranAt string
		if err := rows.Scan(&entry.ID, &entry.Command, &ranAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ranAt); err == nil {
			entry.RanAt = parsed
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func withRetry(ctx context.Context, fn func() error) error {
	backoff := retryBackoff
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		if !isBusyError(err) || attempt >= retryAttempts {
			return err
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database is busy") ||
		strings.Contains(message, "sqlite_busy")
}

package mediastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"class360/internal/config"
)

// SQLiteStore persists key-path documents in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    path       TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_prefix ON documents (path);
`

// Open initializes or connects to the document database under the data dir.
func Open(cfg *config.Config) (*SQLiteStore, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "mediastore.db")
	return OpenPath(dbPath)
}

// OpenPath opens a document store at an explicit database path.
func OpenPath(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *SQLiteStore) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Get returns the document stored at path, or ok=false when absent.
func (s *SQLiteStore) Get(ctx context.Context, path string) (map[string]any, bool, error) {
	path = CleanPath(path)
	if path == "" {
		return nil, false, errors.New("empty store path")
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM documents WHERE path = ?`, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", path, err)
	}

	var value map[string]any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}
	return value, true, nil
}

// Set replaces the document at path.
func (s *SQLiteStore) Set(ctx context.Context, path string, value map[string]any) error {
	path = CleanPath(path)
	if path == "" {
		return errors.New("empty store path")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithRetry(ctx,
		`INSERT INTO documents (path, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		path, string(raw), timestamp,
	)
}

// Update merges partial top-level fields into the existing document at path.
func (s *SQLiteStore) Update(ctx context.Context, path string, partial map[string]any) error {
	if len(partial) == 0 {
		return nil
	}
	existing, ok, err := s.Get(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		existing = make(map[string]any, len(partial))
	}
	for key, value := range partial {
		existing[key] = value
	}
	return s.Set(ctx, path, existing)
}

// Delete removes the document at path. Deleting an absent path is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	path = CleanPath(path)
	if path == "" {
		return errors.New("empty store path")
	}
	return s.execWithRetry(ctx, `DELETE FROM documents WHERE path = ?`, path)
}

// Children lists the immediate child key segments under path.
func (s *SQLiteStore) Children(ctx context.Context, path string) ([]string, error) {
	prefix := CleanPath(path)
	if prefix != "" {
		prefix += "/"
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM documents WHERE path LIKE ? ORDER BY path`,
		prefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("children of %s: %w", path, err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var children []string
	for rows.Next() {
		var full string
		if err := rows.Scan(&full); err != nil {
			return nil, err
		}
		rest := strings.TrimPrefix(full, prefix)
		segment, _, _ := strings.Cut(rest, "/")
		if segment == "" {
			continue
		}
		if _, ok := seen[segment]; ok {
			continue
		}
		seen[segment] = struct{}{}
		children = append(children, segment)
	}
	return children, rows.Err()
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS deq_store (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
)`

// SQLiteEngine implements Engine on an embedded SQLite database. Expiry is
// stored as unix milliseconds; zero means the row never expires.
type SQLiteEngine struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteEngine opens (and creates if needed) the database at path
func NewSQLiteEngine(ctx context.Context, path string) (*SQLiteEngine, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: %w", ErrMissingDSN)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// A single writer keeps SQLite from returning SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLiteEngine{db: db, now: time.Now}, nil
}

// Get retrieves an unexpired value
func (s *SQLiteEngine) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}

	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM deq_store WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite get %q: %w", key, err)
	}

	if expiresAt != 0 && s.now().UnixMilli() > expiresAt {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM deq_store WHERE key = ?`, key); err != nil {
			return "", false, fmt.Errorf("sqlite expire %q: %w", key, err)
		}
		return "", false, nil
	}
	return value, true, nil
}

// Set upserts a value
func (s *SQLiteEngine) Set(ctx context.Context, key, value string, lifetime time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	var expiresAt int64
	if lifetime > 0 {
		expiresAt = s.now().Add(lifetime).UnixMilli()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deq_store (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key
func (s *SQLiteEngine) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM deq_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete %q: %w", key, err)
	}
	return nil
}

// Close closes the database handle
func (s *SQLiteEngine) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGStore implements Store on a Postgres table created by the embedded
// migrations (see internal/shared/storage/db).
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

// Set upserts the value under key.
func (s *PGStore) Set(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO records (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, key, value)
	if err != nil {
		return fmt.Errorf("pg set %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *PGStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM records WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pg get %s: %w", key, err)
	}
	return value, nil
}

// List matches keys against the glob pattern, translated to a LIKE pattern.
func (s *PGStore) List(ctx context.Context, pattern string, includeValues bool) ([]Entry, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT key, value FROM records WHERE key LIKE $1 ORDER BY key`, globToLike(pattern))
	if err != nil {
		return nil, fmt.Errorf("pg list %s: %w", pattern, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("pg list scan: %w", err)
		}
		entry := Entry{Key: key}
		if includeValues {
			entry.Value = value
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg list rows: %w", err)
	}
	return entries, nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (s *PGStore) Delete(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("pg delete %s: %w", key, err)
	}
	return nil
}

// globToLike converts a glob pattern to a SQL LIKE pattern, escaping LIKE
// metacharacters in the literal parts.
func globToLike(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Schema is the cache database schema. Expired rows are filtered on read and
// swept by the cleanup job; SQLite has no native TTL mechanism.
const Schema = `
CREATE TABLE IF NOT EXISTS pokemon (
	key TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	expires_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_pokemon_expires ON pokemon(expires_at);
`

// SQLiteStore is the persistent cache backend, one row per key with a JSON
// text blob and an optional absolute expiry (unix seconds).
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a cache store on top of an open cache database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// NewSQLiteStoreWithClock creates a store with an injected clock, used in
// tests to exercise expiry without sleeping.
func NewSQLiteStoreWithClock(db *sql.DB, now func() time.Time) *SQLiteStore {
	return &SQLiteStore{db: db, now: now}
}

// Set saves or overwrites a value with an optional TTL.
// Uses INSERT OR REPLACE for upsert behavior; last write wins.
func (s *SQLiteStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: s.now().Add(ttl).Unix(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO pokemon (key, data, expires_at) VALUES (?, ?, ?)",
		key, string(jsonData), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry %q: %w", key, err)
	}

	return nil
}

// Get returns the stored value if the key exists and has not expired.
// An entry with an expiry in the past is treated as absent.
func (s *SQLiteStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM pokemon WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)",
		key, s.now().Unix(),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}

	return json.RawMessage(data), nil
}

// Delete removes a specific entry.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM pokemon WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry %q: %w", key, err)
	}
	return nil
}

// DeleteExpired removes all rows whose expiry has passed.
// Returns the number of rows deleted.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM pokemon WHERE expires_at IS NOT NULL AND expires_at < ?",
		s.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

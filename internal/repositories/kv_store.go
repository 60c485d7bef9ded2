package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/curate/internal/shared"
)

// SQLiteStore implements models.Store over the kv_store table.
type SQLiteStore struct {
	changeFeed
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore with the given database connection
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get decodes the JSON document stored under key into dst.
func (s *SQLiteStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to read %s: %w", shared.ErrStorageFailure, key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, fmt.Errorf("%w: failed to decode %s: %w", shared.ErrStorageFailure, key, err)
	}
	return true, nil
}

// Set upserts value under key and notifies listeners.
func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", shared.ErrStorageFailure, key, err)
	}

	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", shared.ErrStorageFailure, key, err)
	}

	s.notify(key)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: failed to delete %s: %w", shared.ErrStorageFailure, key, err)
	}
	s.notify(key)
	return nil
}

// Keys lists stored keys in lexical order.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv_store ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list keys: %w", shared.ErrStorageFailure, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

package favorites

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the favorites set in a local SQLite file,
// as a single JSON array stored under StorageKey in a key-value table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at path and ensures
// the kv table exists.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening favorites database: %w", err)
	}

	// One connection is plenty for a single-user client and sidesteps
	// SQLite's single-writer constraint.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Load reads the persisted stop ids. A missing key or empty value yields an
// empty slice.
func (r *SQLiteRepository) Load(ctx context.Context) ([]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, StorageKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading favorites: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decoding favorites value: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Save rewrites the full persisted value.
func (r *SQLiteRepository) Save(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding favorites value: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		StorageKey, string(raw))
	if err != nil {
		return fmt.Errorf("writing favorites: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)

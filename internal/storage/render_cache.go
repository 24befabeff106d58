// Package storage persists rendered diagrams in a local SQLite database so an
// unchanged diagram is never sent to the PlantUML server twice.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// RenderCache stores rendered artifacts keyed by (token, format).
// Safe for concurrent use; database/sql serialises access to the connection pool.
type RenderCache struct {
	db     *sql.DB
	ownsDB bool // true if we opened the connection, false if shared
}

// CacheStats summarises the cache contents.
type CacheStats struct {
	Entries int
	Bytes   int64
}

// DefaultPath returns ~/.classmap/cache/renders.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".classmap", "cache", "renders.db"), nil
}

// Open opens or creates the cache database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*RenderCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cache, err := newRenderCache(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	cache.ownsDB = true
	return cache, nil
}

// NewRenderCacheWithDB creates a RenderCache using an existing connection,
// creating the schema if the database is new. The caller owns the connection.
func NewRenderCacheWithDB(db *sql.DB) (*RenderCache, error) {
	return newRenderCache(db)
}

func newRenderCache(db *sql.DB) (*RenderCache, error) {
	version, err := GetSchemaVersion(db)
	if err != nil {
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}
	if version == "0" {
		if err := CreateSchema(db); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &RenderCache{db: db}, nil
}

// Get returns the cached artifact for (token, format), if any.
func (c *RenderCache) Get(ctx context.Context, token, format string) ([]byte, bool, error) {
	var artifact []byte
	err := sq.Select("artifact").
		From("renders").
		Where(sq.Eq{"token": token, "format": format}).
		RunWith(c.db).
		QueryRowContext(ctx).
		Scan(&artifact)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query render: %w", err)
	}
	return artifact, true, nil
}

// Put stores artifact for (token, format), replacing any previous entry.
func (c *RenderCache) Put(ctx context.Context, token, format string, artifact []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := sq.Insert("renders").
		Options("OR REPLACE").
		Columns("token", "format", "artifact", "created_at").
		Values(token, format, artifact, now).
		RunWith(c.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to store render: %w", err)
	}
	return nil
}

// Clear removes every cached render and returns how many were removed.
func (c *RenderCache) Clear(ctx context.Context) (int64, error) {
	result, err := sq.Delete("renders").RunWith(c.db).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear renders: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared renders: %w", err)
	}
	return n, nil
}

// Stats reports the number of entries and total artifact size.
func (c *RenderCache) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	err := sq.Select("COUNT(*)", "COALESCE(SUM(LENGTH(artifact)), 0)").
		From("renders").
		RunWith(c.db).
		QueryRowContext(ctx).
		Scan(&stats.Entries, &stats.Bytes)
	if err != nil {
		return CacheStats{}, fmt.Errorf("failed to query cache stats: %w", err)
	}
	return stats, nil
}

// Close closes the database if this cache opened it.
func (c *RenderCache) Close() error {
	if !c.ownsDB {
		return nil
	}
	return c.db.Close()
}

package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database with the schema applied.
// The pool is limited to one connection because every new :memory:
// connection would otherwise see an empty database.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    db := storage.NewTestDB(t)
//	    // ... test code ...
//	    // No need to close - t.Cleanup() handles it
//	}
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, CreateSchema(db))
	return db
}

// NewTestCachePath returns a database path inside t.TempDir() for tests that
// exercise Open and persistence across connections.
func NewTestCachePath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cache", "renders.db")
}

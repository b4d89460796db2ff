package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/openmood/emoscope/internal/db"
	"github.com/openmood/emoscope/internal/repository"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestStore creates a repository.Store over a fresh in-memory database.
func NewTestStore(t *testing.T) repository.Store {
	t.Helper()
	return repository.NewSQLiteStore(NewTestDB(t))
}

// NewFileTestStore creates a Store backed by a file in a temp directory.
// Concurrency tests need this: every connection of an in-memory database sees
// its own empty schema.
func NewFileTestStore(t *testing.T) repository.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emoscope_test.db")
	database, err := db.OpenDB(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return repository.NewSQLiteStore(database)
}

// Package testutil provides test helpers shared across packages: a migrated
// in-memory database and a fluent builder for household fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/GitLars0/budget-forecast/internal/storage"
)

// SetupTestDB creates a new in-memory test database with all migrations
// applied. The database is closed when the test finishes.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	alice := testutil.NewHousehold(t, db, "alice").
//		WithCategories("Groceries", "Travel").
//		Build()
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	db, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := db.Migrate(context.Background()); err != nil {
		_ = db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

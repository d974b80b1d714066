// Package testutil provides shared helpers for tests that need a database.
package testutil

import (
	"context"
	"testing"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/storage"
)

// SetupTestDB creates a migrated in-memory database that is closed when the
// test finishes.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedDocuments indexes docs into store or fails the test.
func SeedDocuments(t *testing.T, store *storage.SQLiteStorage, docs ...service.Document) {
	t.Helper()

	if err := store.Index(context.Background(), docs); err != nil {
		t.Fatalf("failed to seed documents: %v", err)
	}
}

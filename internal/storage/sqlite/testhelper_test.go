package sqlite

import (
	"context"
	"testing"
)

// setupTestDB creates a migrated in-memory database named after the test,
// isolating it from other tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenInMemory(context.Background(), t.Name())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

package testutil

import (
	"testing"

	"health-go/internal/database"
	"health-go/internal/database/migrations"
	"health-go/internal/health"
)

// NewTestDatabase creates a new in-memory SQLite database with all
// migrations applied. The database is closed when the test completes.
func NewTestDatabase(t *testing.T) health.Database {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := migrations.MigrateUp(sqlDB); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// OpenTestDatabase opens the SQLite file at path, migrating it if needed.
// The database is closed when the test completes.
func OpenTestDatabase(t *testing.T, path string) health.Database {
	t.Helper()

	db, err := database.NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("failed to open database %s: %v", path, err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

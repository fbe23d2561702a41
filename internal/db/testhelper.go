package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a migrated metastore pair in t.TempDir() and
// registers cleanup. Tests that do not exercise the read/write split
// can use the write pool for everything.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "metastore.sqlite")
	writeDB, readDB, err := OpenSQLitePair(path, defaultReadPoolSize)
	if err != nil {
		t.Fatalf("open test metastore: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("migrate test metastore: %v", err)
	}
	return writeDB, readDB
}

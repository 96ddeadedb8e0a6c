package storage

import (
	"path/filepath"
	"testing"
)

func TestNew_InMemory(t *testing.T) {
	t.Parallel()
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if db.Conn() == nil {
		t.Error("Conn() returned nil")
	}
	if db.Path() != ":memory:" {
		t.Errorf("Path() = %q, want :memory:", db.Path())
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "catalog.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%q) error = %v", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	// Schema must exist after New
	var name string
	err = db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='courses'").Scan(&name)
	if err != nil {
		t.Fatalf("courses table lookup failed: %v", err)
	}
	if name != "courses" {
		t.Errorf("table name = %q, want courses", name)
	}
}

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
}

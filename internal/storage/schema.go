package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	return createCoursesTable(db)
}

// The courses table keeps the searchable scalars as columns and the full
// normalized course as a JSON payload, so schema changes in optional list
// fields (localidades, horarios, materiales) never require a migration.
func createCoursesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TEXT,
		registration_link TEXT,
		payload TEXT NOT NULL,
		loaded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_courses_title ON courses(title);
	CREATE INDEX IF NOT EXISTS idx_courses_status ON courses(status);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create courses table: %w", err)
	}

	return nil
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/martinvidela/cursobot-go/internal/catalog"
	apperrors "github.com/martinvidela/cursobot-go/internal/errors"
)

// ReplaceAll atomically swaps the stored catalog for the given courses.
// A reload always replaces the whole table; there is no per-course merge,
// so a course dropped upstream disappears here too.
func (db *DB) ReplaceAll(ctx context.Context, courses []catalog.Course) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM courses"); err != nil {
		return fmt.Errorf("clear courses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO courses (id, title, status, start_date, registration_link, payload, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	loadedAt := time.Now().Unix()
	for _, c := range courses {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal course %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Title, string(c.Status), c.StartDate, c.RegistrationLink, string(payload), loadedAt); err != nil {
			return fmt.Errorf("insert course %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// All returns every stored course in insertion order.
func (db *DB) All(ctx context.Context) ([]catalog.Course, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT payload FROM courses ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var courses []catalog.Course
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		var c catalog.Course
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("unmarshal course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	return courses, nil
}

// ByID returns the course with the given identifier.
// Returns apperrors.ErrNotFound when no such course is stored.
func (db *DB) ByID(ctx context.Context, id string) (*catalog.Course, error) {
	if id == "" {
		return nil, fmt.Errorf("course id: %w", apperrors.ErrInvalidInput)
	}

	var payload string
	err := db.conn.QueryRowContext(ctx, "SELECT payload FROM courses WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query course %s: %w", id, err)
	}

	var c catalog.Course
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("unmarshal course %s: %w", id, err)
	}

	return &c, nil
}

// Count returns the number of stored courses.
func (db *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&count); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

// SearchByName returns up to limit courses whose title contains the given
// term, case-insensitively. The term is escaped so LIKE wildcards in user
// input match literally.
func (db *DB) SearchByName(ctx context.Context, term string, limit int) ([]catalog.Course, error) {
	if term == "" {
		return nil, fmt.Errorf("search term: %w", apperrors.ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, nil
	}

	pattern := "%" + sanitizeSearchTerm(term) + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT payload FROM courses
		WHERE title LIKE ? ESCAPE '\' COLLATE NOCASE
		ORDER BY title
		LIMIT ?
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var courses []catalog.Course
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		var c catalog.Course
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("unmarshal course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	return courses, nil
}

// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"elearning/internal/db"
)

// Open returns a fresh, migrated SQLite database under t.TempDir.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(ctx, conn, db.DriverSQLite); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// Exec runs a fixture statement and fails the test on error.
func Exec(t *testing.T, conn *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := conn.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec fixture %q: %v", query, err)
	}
}

// SeedLesson inserts a lesson with the given section ids.
func SeedLesson(t *testing.T, conn *sql.DB, lessonID string, sectionIDs ...string) {
	t.Helper()
	Exec(t, conn, `INSERT INTO lessons (id, title) VALUES ($1, $2)`, lessonID, "Lesson "+lessonID)
	for i, sid := range sectionIDs {
		Exec(t, conn, `INSERT INTO lesson_sections (id, lesson_id, title, order_index) VALUES ($1, $2, $3, $4)`, sid, lessonID, "Section "+sid, i+1)
	}
}

// SeedQuiz inserts a quiz with four lettered options.
func SeedQuiz(t *testing.T, conn *sql.DB, quizID, sectionID string, order int, correct string) {
	t.Helper()
	Exec(t, conn, `
		INSERT INTO quizzes (id, section_id, order_index, question, options, correct_answer)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, quizID, sectionID, order, "Question "+quizID, `{"A":"one","B":"two","C":"three","D":"four"}`, correct)
}

// SeedSubmission inserts a graded submission row directly.
func SeedSubmission(t *testing.T, conn *sql.DB, id, userID, sectionID string, score int) {
	t.Helper()
	status := "failed"
	if score >= 50 {
		status = "passed"
	}
	Exec(t, conn, `
		INSERT INTO quiz_submissions (id, user_id, section_id, total_questions, correct_count, score, status, attempt_number, duration_seconds)
		VALUES ($1, $2, $3, 10, $4, $5, $6, 1, 60)
	`, id, userID, sectionID, score/10, score, status)
}

// Count returns COUNT(*) for a query.
func Count(t *testing.T, conn *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := conn.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

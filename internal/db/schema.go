package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema for the given driver. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB, driver Driver) error {
	var stmts []string
	switch driver {
	case DriverPostgres:
		stmts = schemaPostgres
	case DriverSQLite:
		stmts = schemaSQLite
	default:
		return fmt.Errorf("unsupported db driver: %q", driver)
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'learner',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS lessons (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		order_index INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS lesson_sections (
		id TEXT PRIMARY KEY,
		lesson_id TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		title TEXT NOT NULL DEFAULT '',
		order_index INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lesson_sections_lesson ON lesson_sections (lesson_id)`,
	`CREATE TABLE IF NOT EXISTS quizzes (
		id TEXT PRIMARY KEY,
		section_id TEXT NOT NULL REFERENCES lesson_sections(id) ON DELETE CASCADE,
		order_index INTEGER NOT NULL DEFAULT 0,
		question TEXT NOT NULL DEFAULT '',
		options TEXT NOT NULL DEFAULT '[]',
		correct_answer TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quizzes_section ON quizzes (section_id, order_index)`,
	`CREATE TABLE IF NOT EXISTS quiz_submissions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		section_id TEXT NOT NULL REFERENCES lesson_sections(id) ON DELETE RESTRICT,
		total_questions INTEGER NOT NULL,
		correct_count INTEGER NOT NULL,
		score INTEGER NOT NULL,
		status TEXT NOT NULL,
		attempt_number INTEGER NOT NULL DEFAULT 1,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_submissions_user_section ON quiz_submissions (user_id, section_id)`,
	`CREATE TABLE IF NOT EXISTS question_attempts (
		id TEXT PRIMARY KEY,
		submission_id TEXT NOT NULL REFERENCES quiz_submissions(id) ON DELETE CASCADE,
		quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE RESTRICT,
		selected_option TEXT NOT NULL,
		is_correct BOOLEAN NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_question_attempts_submission ON question_attempts (submission_id)`,
	`CREATE TABLE IF NOT EXISTS scores (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lesson_id TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		score INTEGER NOT NULL,
		status TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, lesson_id)
	)`,
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'learner',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS lessons (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		order_index INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS lesson_sections (
		id TEXT PRIMARY KEY,
		lesson_id TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		title TEXT NOT NULL DEFAULT '',
		order_index INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lesson_sections_lesson ON lesson_sections (lesson_id)`,
	`CREATE TABLE IF NOT EXISTS quizzes (
		id TEXT PRIMARY KEY,
		section_id TEXT NOT NULL REFERENCES lesson_sections(id) ON DELETE CASCADE,
		order_index INTEGER NOT NULL DEFAULT 0,
		question TEXT NOT NULL DEFAULT '',
		options TEXT NOT NULL DEFAULT '[]',
		correct_answer TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quizzes_section ON quizzes (section_id, order_index)`,
	`CREATE TABLE IF NOT EXISTS quiz_submissions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		section_id TEXT NOT NULL REFERENCES lesson_sections(id) ON DELETE RESTRICT,
		total_questions INTEGER NOT NULL,
		correct_count INTEGER NOT NULL,
		score INTEGER NOT NULL,
		status TEXT NOT NULL,
		attempt_number INTEGER NOT NULL DEFAULT 1,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_submissions_user_section ON quiz_submissions (user_id, section_id)`,
	`CREATE TABLE IF NOT EXISTS question_attempts (
		id TEXT PRIMARY KEY,
		submission_id TEXT NOT NULL REFERENCES quiz_submissions(id) ON DELETE CASCADE,
		quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE RESTRICT,
		selected_option TEXT NOT NULL,
		is_correct BOOLEAN NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_question_attempts_submission ON question_attempts (submission_id)`,
	`CREATE TABLE IF NOT EXISTS scores (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lesson_id TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		score INTEGER NOT NULL,
		status TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, lesson_id)
	)`,
}

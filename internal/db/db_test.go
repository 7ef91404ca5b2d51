package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{in: "", want: DriverPostgres},
		{in: "pgx", want: DriverPostgres},
		{in: "Postgres", want: DriverPostgres},
		{in: "sqlite3", want: DriverSQLite},
		{in: "mysql", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseDriver(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q err=%v, want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestSQLiteDSN(t *testing.T) {
	got := sqliteDSN("/tmp/x.db")
	want := "file:/tmp/x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if got != want {
		t.Fatalf("sqliteDSN mismatch got=%s want=%s", got, want)
	}
	custom := "file:x.db?_pragma=foreign_keys(0)"
	if sqliteDSN(custom) != custom {
		t.Fatalf("explicit pragmas must be kept")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, conn, DriverSQLite); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	conn, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if err := Migrate(ctx, conn, DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	boom := errors.New("boom")
	err = WithTx(ctx, conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO lessons (id, title) VALUES ($1, $2)`, "l1", "Logic"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected rollback, found %d lessons", n)
	}

	err = WithTx(ctx, conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO lessons (id, title) VALUES ($1, $2)`, "l1", "Logic")
		return err
	})
	if err != nil {
		t.Fatalf("commit path: %v", err)
	}
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 lesson after commit, got %d", n)
	}
}

func TestGradedHistoryBlocksContentDelete(t *testing.T) {
	ctx := context.Background()
	conn, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "fk.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if err := Migrate(ctx, conn, DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	fixtures := []string{
		`INSERT INTO lessons (id, title) VALUES ('l1', 'Logic')`,
		`INSERT INTO lesson_sections (id, lesson_id, title, order_index) VALUES ('s1', 'l1', 'S', 1)`,
		`INSERT INTO quizzes (id, section_id, order_index, question, options, correct_answer) VALUES ('q1', 's1', 1, 'Q', '["a","b"]', '1')`,
		`INSERT INTO quiz_submissions (id, user_id, section_id, total_questions, correct_count, score, status) VALUES ('sub1', 'u1', 's1', 1, 1, 100, 'passed')`,
		`INSERT INTO question_attempts (id, submission_id, quiz_id, selected_option, is_correct) VALUES ('a1', 'sub1', 'q1', '1', TRUE)`,
	}
	for _, q := range fixtures {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			t.Fatalf("fixture %q: %v", q, err)
		}
	}

	for _, q := range []string{
		`DELETE FROM quizzes WHERE id = 'q1'`,
		`DELETE FROM lesson_sections WHERE id = 's1'`,
		`DELETE FROM lessons WHERE id = 'l1'`,
	} {
		if _, err := conn.ExecContext(ctx, q); err == nil {
			t.Fatalf("expected %q to be rejected while graded history exists", q)
		}
	}

	var subs, attempts int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_submissions`).Scan(&subs); err != nil {
		t.Fatalf("count submissions: %v", err)
	}
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM question_attempts`).Scan(&attempts); err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if subs != 1 || attempts != 1 {
		t.Fatalf("graded history must survive, got submissions=%d attempts=%d", subs, attempts)
	}
}

package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"elearning/internal/apperr"
	"elearning/internal/db/dbtest"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc := NewService(conn)

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	return svc, conn
}

func seedSection(t *testing.T, conn *sql.DB) {
	t.Helper()
	dbtest.SeedLesson(t, conn, "lesson-1", "sec-1", "sec-empty")
	dbtest.SeedQuiz(t, conn, "q1", "sec-1", 1, "A")
	dbtest.SeedQuiz(t, conn, "q2", "sec-1", 2, "B")
	dbtest.SeedQuiz(t, conn, "q3", "sec-1", 3, "C")
}

func TestSubmitQuizPersistsSubmissionAndAttempts(t *testing.T) {
	svc, conn := newTestService(t)
	seedSection(t, conn)
	ctx := context.Background()

	got, err := svc.SubmitQuiz(ctx, SubmitInput{
		LearnerID:       "learner-1",
		SectionID:       "sec-1",
		AttemptNumber:   1,
		DurationSeconds: 95,
		Answers: []Answer{
			{QuizID: "q1", Selected: "A"},
			{QuizID: "q2", Selected: "D"},
			{QuizID: "q3", Selected: "C"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.TotalQuestions != 3 || got.CorrectCount != 2 || got.Score != 67 || got.Status != StatusPassed {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.AttemptNumber != 1 || got.DurationSeconds != 95 || got.SectionID != "sec-1" {
		t.Fatalf("request fields not echoed: %+v", got)
	}

	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM quiz_submissions WHERE id = $1 AND user_id = $2`, got.ID, "learner-1"); n != 1 {
		t.Fatalf("expected 1 submission row, got %d", n)
	}
	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM question_attempts WHERE submission_id = $1`, got.ID); n != 3 {
		t.Fatalf("expected 3 attempt rows, got %d", n)
	}
	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM question_attempts WHERE submission_id = $1 AND is_correct = $2`, got.ID, true); n != 2 {
		t.Fatalf("expected 2 correct attempt rows, got %d", n)
	}
}

func TestSubmitQuizDiscardsForeignAnswers(t *testing.T) {
	svc, conn := newTestService(t)
	seedSection(t, conn)
	dbtest.SeedLesson(t, conn, "lesson-2", "sec-other")
	dbtest.SeedQuiz(t, conn, "q-other", "sec-other", 1, "A")

	got, err := svc.SubmitQuiz(context.Background(), SubmitInput{
		LearnerID: "learner-1",
		SectionID: "sec-1",
		Answers: []Answer{
			{QuizID: "q1", Selected: "A"},
			{QuizID: "q-other", Selected: "A"},
			{QuizID: "missing", Selected: "A"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.TotalQuestions != 3 || got.CorrectCount != 1 || got.Score != 33 || got.Status != StatusFailed {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM question_attempts WHERE submission_id = $1`, got.ID); n != 1 {
		t.Fatalf("expected only the in-section attempt to persist, got %d", n)
	}
}

func TestSubmitQuizRepeatedAnswersCannotInflateScore(t *testing.T) {
	svc, conn := newTestService(t)
	seedSection(t, conn)

	got, err := svc.SubmitQuiz(context.Background(), SubmitInput{
		LearnerID: "learner-1",
		SectionID: "sec-1",
		Answers: []Answer{
			{QuizID: "q1", Selected: "A"},
			{QuizID: "q1", Selected: "A"},
			{QuizID: "q1", Selected: "A"},
			{QuizID: "q1", Selected: "A"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.TotalQuestions != 3 || got.CorrectCount != 1 || got.Score != 33 || got.Status != StatusFailed {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM question_attempts WHERE submission_id = $1`, got.ID); n != 1 {
		t.Fatalf("expected one attempt row for q1, got %d", n)
	}
	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM quiz_submissions WHERE score > 100 OR correct_count > total_questions`); n != 0 {
		t.Fatalf("stored submission out of range")
	}
}

func TestSubmitQuizErrors(t *testing.T) {
	svc, conn := newTestService(t)
	seedSection(t, conn)
	ctx := context.Background()

	_, err := svc.SubmitQuiz(ctx, SubmitInput{LearnerID: "learner-1", SectionID: "nope"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = svc.SubmitQuiz(ctx, SubmitInput{LearnerID: "learner-1", SectionID: "sec-empty"})
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM quiz_submissions`); n != 0 {
		t.Fatalf("failed submits must not write, got %d rows", n)
	}
}

func TestSubmitQuizRollsBackOnAttemptFailure(t *testing.T) {
	svc, conn := newTestService(t)
	seedSection(t, conn)
	dbtest.Exec(t, conn, `
		CREATE TRIGGER fail_attempt_insert
		BEFORE INSERT ON question_attempts
		WHEN NEW.selected_option = 'BOOM'
		BEGIN
			SELECT RAISE(ABORT, 'injected failure');
		END
	`)

	_, err := svc.SubmitQuiz(context.Background(), SubmitInput{
		LearnerID: "learner-1",
		SectionID: "sec-1",
		Answers: []Answer{
			{QuizID: "q1", Selected: "A"},
			{QuizID: "q2", Selected: "BOOM"},
		},
	})
	if err == nil {
		t.Fatalf("expected error from injected failure")
	}
	if apperr.IsExpected(err) {
		t.Fatalf("store failure must not map to an expected kind: %v", err)
	}

	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM quiz_submissions`); n != 0 {
		t.Fatalf("expected submission rolled back, got %d rows", n)
	}
	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM question_attempts`); n != 0 {
		t.Fatalf("expected attempts rolled back, got %d rows", n)
	}
}

func TestSubmitQuizAllowsRepeatedAttemptNumbers(t *testing.T) {
	svc, conn := newTestService(t)
	seedSection(t, conn)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.SubmitQuiz(ctx, SubmitInput{LearnerID: "learner-1", SectionID: "sec-1", AttemptNumber: 1}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if n := dbtest.Count(t, conn, `SELECT COUNT(*) FROM quiz_submissions WHERE user_id = $1`, "learner-1"); n != 2 {
		t.Fatalf("expected 2 submissions, got %d", n)
	}
}

func TestListAndGetSubmissions(t *testing.T) {
	svc, conn := newTestService(t)
	seedSection(t, conn)
	ctx := context.Background()

	first, err := svc.SubmitQuiz(ctx, SubmitInput{
		LearnerID: "learner-1",
		SectionID: "sec-1",
		Answers:   []Answer{{QuizID: "q3", Selected: "C"}, {QuizID: "q1", Selected: "B"}},
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.SubmitQuiz(ctx, SubmitInput{LearnerID: "learner-1", SectionID: "sec-1", AttemptNumber: 2})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if _, err := svc.SubmitQuiz(ctx, SubmitInput{LearnerID: "learner-2", SectionID: "sec-1"}); err != nil {
		t.Fatalf("other learner submit: %v", err)
	}

	list, err := svc.ListSubmissions(ctx, "learner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", list[0].ID, list[1].ID)
	}

	detail, err := svc.GetSubmission(ctx, "learner-1", first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(detail.Attempts))
	}
	if detail.Attempts[0].QuizID != "q1" || detail.Attempts[0].IsCorrect {
		t.Fatalf("expected q1 first and wrong, got %+v", detail.Attempts[0])
	}
	if detail.Attempts[1].QuizID != "q3" || !detail.Attempts[1].IsCorrect {
		t.Fatalf("expected q3 second and correct, got %+v", detail.Attempts[1])
	}

	_, err = svc.GetSubmission(ctx, "learner-2", first.ID)
	if !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("expected other learner to get not found, got %v", err)
	}
}

package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"elearning/internal/apperr"
	"elearning/internal/db"

	"github.com/google/uuid"
)

var (
	ErrSectionNotFound    = apperr.NotFound("section not found")
	ErrNoQuizzes          = apperr.InvalidState("no quizzes for section")
	ErrSubmissionNotFound = apperr.NotFound("submission not found")
)

type Service struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

type SubmitInput struct {
	LearnerID       string
	SectionID       string
	AttemptNumber   int
	DurationSeconds int
	Answers         []Answer
}

type SubmissionSummary struct {
	ID              string `json:"id"`
	SectionID       string `json:"sectionId"`
	TotalQuestions  int    `json:"totalQuestions"`
	CorrectCount    int    `json:"correctCount"`
	Score           int    `json:"score"`
	Status          string `json:"status"`
	AttemptNumber   int    `json:"attemptNumber"`
	DurationSeconds int    `json:"durationSeconds"`
}

type Submission struct {
	SubmissionSummary
	CreatedAt time.Time `json:"createdAt"`
}

type QuestionAttempt struct {
	ID        string `json:"id"`
	QuizID    string `json:"quizId"`
	Selected  string `json:"selected"`
	IsCorrect bool   `json:"isCorrect"`
}

type SubmissionDetail struct {
	Submission
	Attempts []QuestionAttempt `json:"attempts"`
}

type quizRow struct {
	ID      string
	Options map[string]string
	Correct string
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

func (s *Service) SubmitQuiz(ctx context.Context, in SubmitInput) (*SubmissionSummary, error) {
	if err := s.ensureSection(ctx, in.SectionID); err != nil {
		return nil, err
	}

	quizzes, err := s.loadSectionQuizzes(ctx, in.SectionID)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return nil, ErrNoQuizzes
	}

	bank := make([]QuizKey, 0, len(quizzes))
	for _, q := range quizzes {
		bank = append(bank, QuizKey{ID: q.ID, Correct: q.Correct})
	}
	graded := Grade(bank, in.Answers)

	summary := &SubmissionSummary{
		ID:              s.newID(),
		SectionID:       in.SectionID,
		TotalQuestions:  graded.TotalQuestions,
		CorrectCount:    graded.CorrectCount,
		Score:           graded.Score,
		Status:          graded.Status,
		AttemptNumber:   in.AttemptNumber,
		DurationSeconds: in.DurationSeconds,
	}

	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quiz_submissions (
				id,
				user_id,
				section_id,
				total_questions,
				correct_count,
				score,
				status,
				attempt_number,
				duration_seconds,
				created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, summary.ID, in.LearnerID, summary.SectionID, summary.TotalQuestions, summary.CorrectCount,
			summary.Score, summary.Status, summary.AttemptNumber, summary.DurationSeconds, s.now()); err != nil {
			return fmt.Errorf("insert quiz submission: %w", err)
		}

		for _, a := range graded.Attempts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO question_attempts (
					id,
					submission_id,
					quiz_id,
					selected_option,
					is_correct
				) VALUES ($1, $2, $3, $4, $5)
			`, s.newID(), summary.ID, a.QuizID, a.Selected, a.IsCorrect); err != nil {
				return fmt.Errorf("insert question attempt for quiz %s: %w", a.QuizID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

func (s *Service) ListSubmissions(ctx context.Context, learnerID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id,
			section_id,
			total_questions,
			correct_count,
			score,
			status,
			attempt_number,
			duration_seconds,
			created_at
		FROM quiz_submissions
		WHERE user_id = $1
		ORDER BY created_at DESC, id ASC
	`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	out := make([]Submission, 0)
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(
			&sub.ID,
			&sub.SectionID,
			&sub.TotalQuestions,
			&sub.CorrectCount,
			&sub.Score,
			&sub.Status,
			&sub.AttemptNumber,
			&sub.DurationSeconds,
			&sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

func (s *Service) GetSubmission(ctx context.Context, learnerID, submissionID string) (*SubmissionDetail, error) {
	detail := &SubmissionDetail{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			id,
			section_id,
			total_questions,
			correct_count,
			score,
			status,
			attempt_number,
			duration_seconds,
			created_at
		FROM quiz_submissions
		WHERE id = $1 AND user_id = $2
	`, submissionID, learnerID).Scan(
		&detail.ID,
		&detail.SectionID,
		&detail.TotalQuestions,
		&detail.CorrectCount,
		&detail.Score,
		&detail.Status,
		&detail.AttemptNumber,
		&detail.DurationSeconds,
		&detail.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("load submission: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT qa.id, qa.quiz_id, qa.selected_option, qa.is_correct
		FROM question_attempts qa
		JOIN quizzes q ON q.id = qa.quiz_id
		WHERE qa.submission_id = $1
		ORDER BY q.order_index ASC, qa.id ASC
	`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("query question attempts: %w", err)
	}
	defer rows.Close()

	detail.Attempts = make([]QuestionAttempt, 0)
	for rows.Next() {
		var a QuestionAttempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.Selected, &a.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan question attempt: %w", err)
		}
		detail.Attempts = append(detail.Attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question attempts: %w", err)
	}
	return detail, nil
}

func (s *Service) ensureSection(ctx context.Context, sectionID string) error {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM lesson_sections
		WHERE id = $1
	`, sectionID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSectionNotFound
		}
		return fmt.Errorf("load section: %w", err)
	}
	return nil
}

func (s *Service) loadSectionQuizzes(ctx context.Context, sectionID string) ([]quizRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, options, correct_answer
		FROM quizzes
		WHERE section_id = $1
		ORDER BY order_index ASC, id ASC
	`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("query section quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]quizRow, 0)
	for rows.Next() {
		var (
			q          quizRow
			optionsRaw string
		)
		if err := rows.Scan(&q.ID, &optionsRaw, &q.Correct); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		q.Options, err = DecodeOptions([]byte(optionsRaw))
		if err != nil {
			return nil, fmt.Errorf("decode options for quiz %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section quizzes: %w", err)
	}
	return out, nil
}

package score

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"elearning/internal/apperr"
	"elearning/internal/quiz"

	"github.com/google/uuid"
)

var (
	ErrSectionNotFound = apperr.NotFound("section not found")
	ErrNoSections      = apperr.InvalidState("lesson has no sections")
	ErrNoSubmissions   = apperr.InvalidState("no submissions for this lesson")
)

type Service struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

type LessonScoreSummary struct {
	LessonID string `json:"lessonId"`
	Score    int    `json:"score"`
	Status   string `json:"status"`
}

type LessonScore struct {
	LessonScoreSummary
	LessonTitle string    `json:"lessonTitle"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type RecomputeResult struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// ComputeLessonScore recomputes the learner's score for the lesson that owns
// sectionID from the best submission of each of its sections.
func (s *Service) ComputeLessonScore(ctx context.Context, learnerID, sectionID string) (*LessonScoreSummary, error) {
	var lessonID string
	err := s.db.QueryRowContext(ctx, `
		SELECT lesson_id
		FROM lesson_sections
		WHERE id = $1
	`, sectionID).Scan(&lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("load section lesson: %w", err)
	}

	return s.computeForLesson(ctx, learnerID, lessonID)
}

func (s *Service) computeForLesson(ctx context.Context, learnerID, lessonID string) (*LessonScoreSummary, error) {
	var sectionCount int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM lesson_sections
		WHERE lesson_id = $1
	`, lessonID).Scan(&sectionCount); err != nil {
		return nil, fmt.Errorf("count lesson sections: %w", err)
	}
	if sectionCount == 0 {
		return nil, ErrNoSections
	}

	best, err := s.bestSectionScores(ctx, learnerID, lessonID)
	if err != nil {
		return nil, err
	}
	if len(best) == 0 {
		return nil, ErrNoSubmissions
	}

	sum := 0
	for _, v := range best {
		sum += v
	}
	out := &LessonScoreSummary{
		LessonID: lessonID,
		Score:    quiz.RoundMean(sum, len(best)),
	}
	out.Status = quiz.StatusFor(out.Score)

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (id, user_id, lesson_id, score, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			score = EXCLUDED.score,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, s.newID(), learnerID, lessonID, out.Score, out.Status, s.now()); err != nil {
		return nil, fmt.Errorf("upsert lesson score: %w", err)
	}
	return out, nil
}

// bestSectionScores returns the highest submission score per section, limited
// to sections currently attached to the lesson.
func (s *Service) bestSectionScores(ctx context.Context, learnerID, lessonID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT qs.section_id, MAX(qs.score)
		FROM quiz_submissions qs
		JOIN lesson_sections ls ON ls.id = qs.section_id
		WHERE qs.user_id = $1 AND ls.lesson_id = $2
		GROUP BY qs.section_id
	`, learnerID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("query best section scores: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			sectionID string
			best      int
		)
		if err := rows.Scan(&sectionID, &best); err != nil {
			return nil, fmt.Errorf("scan best section score: %w", err)
		}
		out[sectionID] = best
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate best section scores: %w", err)
	}
	return out, nil
}

func (s *Service) ListScores(ctx context.Context, learnerID string) ([]LessonScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sc.lesson_id, l.title, sc.score, sc.status, sc.updated_at
		FROM scores sc
		JOIN lessons l ON l.id = sc.lesson_id
		WHERE sc.user_id = $1
		ORDER BY l.order_index ASC, l.title ASC
	`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query lesson scores: %w", err)
	}
	defer rows.Close()

	out := make([]LessonScore, 0)
	for rows.Next() {
		var item LessonScore
		if err := rows.Scan(&item.LessonID, &item.LessonTitle, &item.Score, &item.Status, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lesson score: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson scores: %w", err)
	}
	return out, nil
}

// RecomputeAll refreshes every (learner, lesson) pair with at least one
// submission on a current section. Pairs that are no longer computable are
// skipped; store failures abort the run.
func (s *Service) RecomputeAll(ctx context.Context) (*RecomputeResult, error) {
	type pair struct{ learnerID, lessonID string }

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT qs.user_id, ls.lesson_id
		FROM quiz_submissions qs
		JOIN lesson_sections ls ON ls.id = qs.section_id
		ORDER BY qs.user_id, ls.lesson_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query score pairs: %w", err)
	}
	pairs := make([]pair, 0)
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.learnerID, &p.lessonID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan score pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate score pairs: %w", err)
	}
	rows.Close()

	res := &RecomputeResult{}
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := s.computeForLesson(ctx, p.learnerID, p.lessonID); err != nil {
			if apperr.IsExpected(err) {
				log.Printf("recompute score skipped user=%s lesson=%s: %v", p.learnerID, p.lessonID, err)
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("recompute score user=%s lesson=%s: %w", p.learnerID, p.lessonID, err)
		}
		res.Updated++
	}
	return res, nil
}

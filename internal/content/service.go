package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"elearning/internal/apperr"
	"elearning/internal/quiz"
)

var (
	ErrLessonNotFound  = apperr.NotFound("lesson not found")
	ErrSectionNotFound = apperr.NotFound("section not found")
)

type Service struct {
	db *sql.DB
}

type Lesson struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	OrderIndex   int    `json:"orderIndex"`
	SectionCount int    `json:"sectionCount"`
}

type Section struct {
	ID         string `json:"id"`
	LessonID   string `json:"lessonId"`
	Title      string `json:"title"`
	OrderIndex int    `json:"orderIndex"`
	QuizCount  int    `json:"quizCount"`
}

type LessonDetail struct {
	Lesson
	Sections []Section `json:"sections"`
}

type QuizOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// PublicQuiz is the learner view of a quiz. It never carries the answer key.
type PublicQuiz struct {
	ID         string       `json:"id"`
	SectionID  string       `json:"sectionId"`
	OrderIndex int          `json:"orderIndex"`
	Question   string       `json:"question"`
	Options    []QuizOption `json:"options"`
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) ListLessons(ctx context.Context) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			l.id,
			l.title,
			l.description,
			l.order_index,
			COUNT(ls.id)
		FROM lessons l
		LEFT JOIN lesson_sections ls ON ls.lesson_id = l.id
		GROUP BY l.id, l.title, l.description, l.order_index
		ORDER BY l.order_index ASC, l.title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	out := make([]Lesson, 0)
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.OrderIndex, &l.SectionCount); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}
	return out, nil
}

func (s *Service) GetLesson(ctx context.Context, lessonID string) (*LessonDetail, error) {
	detail := &LessonDetail{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, order_index
		FROM lessons
		WHERE id = $1
	`, lessonID).Scan(&detail.ID, &detail.Title, &detail.Description, &detail.OrderIndex)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("load lesson: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			ls.id,
			ls.lesson_id,
			ls.title,
			ls.order_index,
			COUNT(q.id)
		FROM lesson_sections ls
		LEFT JOIN quizzes q ON q.section_id = ls.id
		WHERE ls.lesson_id = $1
		GROUP BY ls.id, ls.lesson_id, ls.title, ls.order_index
		ORDER BY ls.order_index ASC, ls.id ASC
	`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("query lesson sections: %w", err)
	}
	defer rows.Close()

	detail.Sections = make([]Section, 0)
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.LessonID, &sec.Title, &sec.OrderIndex, &sec.QuizCount); err != nil {
			return nil, fmt.Errorf("scan lesson section: %w", err)
		}
		detail.Sections = append(detail.Sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson sections: %w", err)
	}
	detail.SectionCount = len(detail.Sections)
	return detail, nil
}

func (s *Service) ListSectionQuizzes(ctx context.Context, sectionID string) ([]PublicQuiz, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM lesson_sections WHERE id = $1`, sectionID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("load section: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, section_id, order_index, question, options
		FROM quizzes
		WHERE section_id = $1
		ORDER BY order_index ASC, id ASC
	`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("query section quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]PublicQuiz, 0)
	for rows.Next() {
		var (
			q          PublicQuiz
			optionsRaw string
		)
		if err := rows.Scan(&q.ID, &q.SectionID, &q.OrderIndex, &q.Question, &optionsRaw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		options, err := quiz.DecodeOptions([]byte(optionsRaw))
		if err != nil {
			return nil, fmt.Errorf("decode options for quiz %s: %w", q.ID, err)
		}
		q.Options = make([]QuizOption, 0, len(options))
		for _, k := range quiz.OptionKeys(options) {
			q.Options = append(q.Options, QuizOption{Key: k, Text: options[k]})
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section quizzes: %w", err)
	}
	return out, nil
}

package report

import (
	"bytes"
	"context"
	"fmt"

	"elearning/internal/quiz"
	"elearning/internal/score"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSubmissions = "submissions"
	SheetScores      = "scores"
)

type submissionLister interface {
	ListSubmissions(ctx context.Context, learnerID string) ([]quiz.Submission, error)
}

type scoreLister interface {
	ListScores(ctx context.Context, learnerID string) ([]score.LessonScore, error)
}

type Service struct {
	submissions submissionLister
	scores      scoreLister
}

func NewService(submissions submissionLister, scores scoreLister) *Service {
	return &Service{submissions: submissions, scores: scores}
}

// ExportLearnerWorkbook builds an xlsx file with one sheet of quiz
// submissions and one of lesson scores for the learner.
func (s *Service) ExportLearnerWorkbook(ctx context.Context, learnerID string) ([]byte, error) {
	subs, err := s.submissions.ListSubmissions(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	scores, err := s.scores.ListScores(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSubmissions); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	subRows := make([][]any, 0, len(subs))
	for _, it := range subs {
		subRows = append(subRows, []any{
			it.ID,
			it.SectionID,
			it.AttemptNumber,
			it.TotalQuestions,
			it.CorrectCount,
			it.Score,
			it.Status,
			it.DurationSeconds,
			it.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	writeSheet(f, SheetSubmissions,
		[]string{"submission_id", "section_id", "attempt_number", "total_questions", "correct_count", "score", "status", "duration_seconds", "created_at"},
		subRows)

	if _, err := f.NewSheet(SheetScores); err != nil {
		return nil, fmt.Errorf("create scores sheet: %w", err)
	}
	scoreRows := make([][]any, 0, len(scores))
	for _, it := range scores {
		scoreRows = append(scoreRows, []any{
			it.LessonID,
			it.LessonTitle,
			it.Score,
			it.Status,
			it.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	writeSheet(f, SheetScores,
		[]string{"lesson_id", "lesson_title", "score", "status", "updated_at"},
		scoreRows)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, values := range rows {
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(sheet, "A", last, 20)
}

package score

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"elearning/internal/auth"
)

type mockScoreService struct {
	computeFn func(ctx context.Context, learnerID, sectionID string) (*LessonScoreSummary, error)
	listFn    func(ctx context.Context, learnerID string) ([]LessonScore, error)
}

func (m *mockScoreService) ComputeLessonScore(ctx context.Context, learnerID, sectionID string) (*LessonScoreSummary, error) {
	if m.computeFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.computeFn(ctx, learnerID, sectionID)
}

func (m *mockScoreService) ListScores(ctx context.Context, learnerID string) ([]LessonScore, error) {
	if m.listFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listFn(ctx, learnerID)
}

func TestComputeHandler(t *testing.T) {
	h := NewHandler(&mockScoreService{
		computeFn: func(ctx context.Context, learnerID, sectionID string) (*LessonScoreSummary, error) {
			switch sectionID {
			case "missing":
				return nil, ErrSectionNotFound
			case "fresh":
				return nil, ErrNoSubmissions
			case "broken":
				return nil, errors.New("upsert lesson score: database is locked")
			}
			return &LessonScoreSummary{LessonID: "lesson-1", Score: 60, Status: "passed"}, nil
		},
	})

	tests := []struct {
		name       string
		body       string
		anonymous  bool
		wantStatus int
	}{
		{name: "ok", body: `{"sectionId":"sec-a"}`, wantStatus: http.StatusOK},
		{name: "anonymous", body: `{"sectionId":"sec-a"}`, anonymous: true, wantStatus: http.StatusUnauthorized},
		{name: "missing body field", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "unknown section", body: `{"sectionId":"missing"}`, wantStatus: http.StatusNotFound},
		{name: "no submissions", body: `{"sectionId":"fresh"}`, wantStatus: http.StatusBadRequest},
		{name: "store failure", body: `{"sectionId":"broken"}`, wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/scores/compute_score", bytes.NewBufferString(tc.body))
			if !tc.anonymous {
				req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: "learner-1", Role: auth.RoleLearner}))
			}
			w := httptest.NewRecorder()
			h.Compute(w, req)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d body=%s", tc.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListHandlerUsesCurrentLearner(t *testing.T) {
	var got string
	h := NewHandler(&mockScoreService{
		listFn: func(ctx context.Context, learnerID string) ([]LessonScore, error) {
			got = learnerID
			return []LessonScore{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scores", nil)
	req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: "learner-9", Role: auth.RoleLearner}))
	w := httptest.NewRecorder()
	h.List(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got != "learner-9" {
		t.Fatalf("expected learner-9, got %q", got)
	}
}

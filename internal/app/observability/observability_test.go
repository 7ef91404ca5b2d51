package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"elearning/internal/auth"
)

func TestNormalizedPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "/api/v1/quiz_submission/7b0f2c1e-4b7a-4d7e-9c1a-2f6b3c9d8e10", want: "/api/v1/quiz_submission/{id}"},
		{in: "/api/v1/lessons/42", want: "/api/v1/lessons/{id}"},
		{in: "/api/v1/sections/logic-1-s1/quizzes", want: "/api/v1/sections/logic-1-s1/quizzes"},
		{in: "", want: "/"},
	}
	for _, tc := range tests {
		if got := normalizedPath(tc.in); got != tc.want {
			t.Fatalf("normalizedPath(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestExtractSubmissionID(t *testing.T) {
	if id := extractSubmissionID("/api/v1/quiz_submission/sub-1"); id != "sub-1" {
		t.Fatalf("expected sub-1, got %q", id)
	}
	if id := extractSubmissionID("/api/v1/quiz_submission/submit_quiz"); id != "" {
		t.Fatalf("expected empty id for submit route, got %q", id)
	}
	if id := extractSubmissionID("/api/v1/scores"); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}

func TestMiddlewareAndMetrics(t *testing.T) {
	c := NewCollector(nil)

	var seen string
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(auth.ContextWithUser(r.Context(), &auth.User{ID: "learner-1"}))
		TagUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Context().Value(userSlotKey{}).(*userSlot).id
			w.WriteHeader(http.StatusCreated)
		})).ServeHTTP(w, r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quiz_submission/submit_quiz", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "learner-1" {
		t.Fatalf("expected user tagged in slot, got %q", seen)
	}

	c.RecordGraded("passed")
	c.RecordGraded("passed")

	w := httptest.NewRecorder()
	c.MetricsHandler(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	if !strings.Contains(body, `elearning_http_requests_total{method="POST",path="/api/v1/quiz_submission/submit_quiz",status="201"} 1`) {
		t.Fatalf("missing request counter:\n%s", body)
	}
	if !strings.Contains(body, `elearning_quiz_submissions_total{status="passed"} 2`) {
		t.Fatalf("missing graded counter:\n%s", body)
	}
}

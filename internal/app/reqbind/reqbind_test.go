package reqbind

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"elearning/internal/apperr"
)

type sample struct {
	SectionID string `json:"sectionId" validate:"required"`
	Attempt   int    `json:"attemptNumber" validate:"min=0"`
	Items     []item `json:"items" validate:"dive"`
}

type item struct {
	QuizID string `json:"quizId" validate:"required"`
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "ok", body: `{"sectionId":"s1","attemptNumber":1,"items":[{"quizId":"q1"}]}`},
		{name: "bad json", body: `{"sectionId":`, wantErr: "invalid request body"},
		{name: "missing section", body: `{"attemptNumber":1}`, wantErr: "sectionId is required"},
		{name: "negative attempt", body: `{"sectionId":"s1","attemptNumber":-1}`, wantErr: "attemptNumber must be at least 0"},
		{name: "nested required", body: `{"sectionId":"s1","items":[{"quizId":""}]}`, wantErr: "items[0].quizId is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst sample
			err := JSON(req, &dst)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q", tc.wantErr)
			}
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("expected invalid input kind, got %v", err)
			}
			if err.Error() != tc.wantErr {
				t.Fatalf("expected %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

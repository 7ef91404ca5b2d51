package content

import (
	"context"
	"io"
	"net/http"
	"strings"

	"elearning/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

const maxBundleBytes = 4 << 20

type Handler struct {
	svc contentService
}

type contentService interface {
	ListLessons(ctx context.Context) ([]Lesson, error)
	GetLesson(ctx context.Context, lessonID string) (*LessonDetail, error)
	ListSectionQuizzes(ctx context.Context, sectionID string) ([]PublicQuiz, error)
	ImportBundle(ctx context.Context, b *Bundle) (*ImportResult, error)
}

func NewHandler(svc contentService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Lessons(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListLessons(r.Context())
	if err != nil {
		apiresp.WriteFailure(w, r, "list lessons", err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Lesson(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid lesson id")
		return
	}
	detail, err := h.svc.GetLesson(r.Context(), id)
	if err != nil {
		apiresp.WriteFailure(w, r, "get lesson "+id, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, detail)
}

func (h *Handler) SectionQuizzes(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid section id")
		return
	}
	items, err := h.svc.ListSectionQuizzes(r.Context(), id)
	if err != nil {
		apiresp.WriteFailure(w, r, "list section quizzes "+id, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

// Import accepts a YAML content bundle as the raw request body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	bundle, err := DecodeBundle(io.LimitReader(r.Body, maxBundleBytes))
	if err != nil {
		apiresp.WriteFailure(w, r, "decode content bundle", err)
		return
	}
	res, err := h.svc.ImportBundle(r.Context(), bundle)
	if err != nil {
		apiresp.WriteFailure(w, r, "import content bundle", err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, res)
}

package score

import (
	"context"
	"net/http"
	"strings"

	"elearning/internal/app/apiresp"
	"elearning/internal/app/reqbind"
	"elearning/internal/auth"
)

type Handler struct {
	svc scoreService
}

type scoreService interface {
	ComputeLessonScore(ctx context.Context, learnerID, sectionID string) (*LessonScoreSummary, error)
	ListScores(ctx context.Context, learnerID string) ([]LessonScore, error)
}

type computeScoreRequest struct {
	SectionID string `json:"sectionId" validate:"required"`
}

type computeScoreResponse struct {
	Message string              `json:"message"`
	Score   *LessonScoreSummary `json:"score"`
}

func NewHandler(svc scoreService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req computeScoreRequest
	if err := reqbind.JSON(r, &req); err != nil {
		apiresp.WriteFailure(w, r, "compute score", err)
		return
	}

	sectionID := strings.TrimSpace(req.SectionID)
	out, err := h.svc.ComputeLessonScore(r.Context(), user.ID, sectionID)
	if err != nil {
		apiresp.WriteFailure(w, r, "compute score user="+user.ID+" section="+sectionID, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, computeScoreResponse{Message: "score computed", Score: out})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.svc.ListScores(r.Context(), user.ID)
	if err != nil {
		apiresp.WriteFailure(w, r, "list scores user="+user.ID, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

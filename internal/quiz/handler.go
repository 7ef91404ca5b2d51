package quiz

import (
	"context"
	"net/http"
	"strings"

	"elearning/internal/app/apiresp"
	"elearning/internal/app/reqbind"
	"elearning/internal/auth"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc      quizService
	onGraded func(status string)
}

type quizService interface {
	SubmitQuiz(ctx context.Context, in SubmitInput) (*SubmissionSummary, error)
	ListSubmissions(ctx context.Context, learnerID string) ([]Submission, error)
	GetSubmission(ctx context.Context, learnerID, submissionID string) (*SubmissionDetail, error)
}

type submitQuizRequest struct {
	SectionID       string   `json:"sectionId" validate:"required"`
	AttemptNumber   int      `json:"attemptNumber" validate:"min=0"`
	DurationSeconds int      `json:"durationSeconds" validate:"min=0"`
	Answers         []Answer `json:"answers" validate:"dive"`
}

type submitQuizResponse struct {
	Message    string             `json:"message"`
	Submission *SubmissionSummary `json:"submission"`
}

type listSubmissionsResponse struct {
	Count       int          `json:"count"`
	Submissions []Submission `json:"submissions"`
}

func NewHandler(svc quizService) *Handler {
	return &Handler{svc: svc}
}

// OnGraded registers a callback run after each stored submission.
func (h *Handler) OnGraded(fn func(status string)) {
	h.onGraded = fn
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req submitQuizRequest
	if err := reqbind.JSON(r, &req); err != nil {
		apiresp.WriteFailure(w, r, "submit quiz", err)
		return
	}

	summary, err := h.svc.SubmitQuiz(r.Context(), SubmitInput{
		LearnerID:       user.ID,
		SectionID:       strings.TrimSpace(req.SectionID),
		AttemptNumber:   req.AttemptNumber,
		DurationSeconds: req.DurationSeconds,
		Answers:         req.Answers,
	})
	if err != nil {
		apiresp.WriteFailure(w, r, "submit quiz user="+user.ID+" section="+req.SectionID, err)
		return
	}

	if h.onGraded != nil {
		h.onGraded(summary.Status)
	}
	apiresp.WriteOK(w, r, http.StatusCreated, submitQuizResponse{
		Message:    "quiz submitted",
		Submission: summary,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.svc.ListSubmissions(r.Context(), user.ID)
	if err != nil {
		apiresp.WriteFailure(w, r, "list submissions user="+user.ID, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, listSubmissionsResponse{Count: len(items), Submissions: items})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid submission id")
		return
	}

	detail, err := h.svc.GetSubmission(r.Context(), user.ID, id)
	if err != nil {
		apiresp.WriteFailure(w, r, "get submission user="+user.ID, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, detail)
}

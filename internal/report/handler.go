package report

import (
	"context"
	"net/http"
	"strconv"

	"elearning/internal/app/apiresp"
	"elearning/internal/auth"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc workbookExporter
}

type workbookExporter interface {
	ExportLearnerWorkbook(ctx context.Context, learnerID string) ([]byte, error)
}

func NewHandler(svc workbookExporter) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) MyWorkbook(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	data, err := h.svc.ExportLearnerWorkbook(r.Context(), user.ID)
	if err != nil {
		apiresp.WriteFailure(w, r, "export workbook user="+user.ID, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="elearning-report.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

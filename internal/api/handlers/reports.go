// reports.go — обработчики /api/reports: отчёты текущего пользователя.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/Nickto55/serverReport/internal/api/errors"
	"github.com/Nickto55/serverReport/internal/api/middleware"
	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/repository"
	"github.com/Nickto55/serverReport/internal/service"
)

// maxListLimit — верхняя граница параметра limit.
const maxListLimit = 1000

const reportNotFound = "Отчёт не найден"

// createReportRequest — тело POST /api/reports.
type createReportRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Source      *string `json:"source"`
}

// updateReportRequest — тело PUT /api/reports/{id}. Отсутствующее поле не меняется.
type updateReportRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// reportResponse — JSON представление отчёта.
type reportResponse struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    *string   `json:"category"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateReport — POST /api/reports.
func (h *APIHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rep, err := h.reports.Create(r.Context(), service.CreateReportInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Source:      req.Source,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "Пользователь не найден")
		return
	}

	writeJSON(w, http.StatusCreated, mapReport(rep))
}

// ListReports — GET /api/reports[?limit=N]. Новые первыми.
func (h *APIHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			apierrors.ValidationError(w, "Параметр limit должен быть целым числом от 1 до 1000")
			return
		}
		limit = n
	}

	reports, err := h.reports.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(w, r, err, reportNotFound)
		return
	}

	writeJSON(w, http.StatusOK, mapReports(reports))
}

// GetReport — GET /api/reports/{id}.
func (h *APIHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := reportIDParam(w, r)
	if !ok {
		return
	}

	rep, err := h.reports.Get(r.Context(), id, userID)
	if err != nil {
		h.writeServiceError(w, r, err, reportNotFound)
		return
	}

	writeJSON(w, http.StatusOK, mapReport(rep))
}

// UpdateReport — PUT /api/reports/{id}. Частичное обновление.
func (h *APIHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := reportIDParam(w, r)
	if !ok {
		return
	}

	var req updateReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rep, err := h.reports.Update(r.Context(), id, userID, repository.ReportPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		h.writeServiceError(w, r, err, reportNotFound)
		return
	}

	writeJSON(w, http.StatusOK, mapReport(rep))
}

// DeleteReport — DELETE /api/reports/{id}.
func (h *APIHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := reportIDParam(w, r)
	if !ok {
		return
	}

	if err := h.reports.Delete(r.Context(), id, userID); err != nil {
		h.writeServiceError(w, r, err, reportNotFound)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Report deleted successfully"})
}

// currentUser возвращает subject текущего пользователя или пишет 401.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	sub := middleware.SubjectFromContext(r.Context())
	if sub == "" {
		apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
		return "", false
	}
	return sub, true
}

func mapReport(rep *model.Report) reportResponse {
	return reportResponse{
		ID:          rep.ID,
		UserID:      rep.UserID,
		Title:       rep.Title,
		Description: rep.Description,
		Category:    rep.Category,
		Priority:    rep.Priority,
		Status:      rep.Status,
		Source:      rep.Source,
		CreatedAt:   rep.CreatedAt,
		UpdatedAt:   rep.UpdatedAt,
	}
}

func mapReports(reports []*model.Report) []reportResponse {
	items := make([]reportResponse, len(reports))
	for i, rep := range reports {
		items[i] = mapReport(rep)
	}
	return items
}

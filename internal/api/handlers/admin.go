// admin.go — обработчики /api/admin: доступ ко всем пользователям и отчётам.
// Роль admin проверяется middleware.RequireRole на уровне роутера.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Nickto55/serverReport/internal/domain/model"
)

// userResponse — JSON представление пользователя.
type userResponse struct {
	ID        string               `json:"id"`
	Username  string               `json:"username"`
	Email     *openapi_types.Email `json:"email,omitempty"`
	Role      string               `json:"role"`
	Status    string               `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

// reportWithOwnerResponse — отчёт с именем владельца.
type reportWithOwnerResponse struct {
	reportResponse
	Username string `json:"username"`
}

// updateStatusRequest — тело PUT /api/admin/reports/{id}/status.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// statsResponse — агрегированные счётчики.
type statsResponse struct {
	TotalUsers           int64 `json:"totalUsers"`
	TotalReports         int64 `json:"totalReports"`
	OpenReports          int64 `json:"openReports"`
	DiscordIntegrations  int64 `json:"discordIntegrations"`
	TelegramIntegrations int64 `json:"telegramIntegrations"`
}

// AdminListUsers — GET /api/admin/users.
func (h *APIHandler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Пользователь не найден")
		return
	}

	items := make([]userResponse, len(users))
	for i, u := range users {
		items[i] = mapUser(u)
	}
	writeJSON(w, http.StatusOK, items)
}

// AdminListUserReports — GET /api/admin/users/{userId}/reports.
func (h *APIHandler) AdminListUserReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.users.Reports(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(w, r, err, "Пользователь не найден")
		return
	}
	writeJSON(w, http.StatusOK, mapReports(reports))
}

// AdminListReports — GET /api/admin/reports[?status=&priority=].
func (h *APIHandler) AdminListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reports, err := h.reports.ListFiltered(r.Context(), queryParam(q.Get("status")), queryParam(q.Get("priority")))
	if err != nil {
		h.writeServiceError(w, r, err, reportNotFound)
		return
	}

	items := make([]reportWithOwnerResponse, len(reports))
	for i, rep := range reports {
		items[i] = reportWithOwnerResponse{
			reportResponse: mapReport(&rep.Report),
			Username:       rep.Username,
		}
	}
	writeJSON(w, http.StatusOK, items)
}

// AdminUpdateReportStatus — PUT /api/admin/reports/{id}/status.
// Меняет только статус, владелец не проверяется.
func (h *APIHandler) AdminUpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := reportIDParam(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rep, err := h.reports.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err, reportNotFound)
		return
	}
	writeJSON(w, http.StatusOK, mapReport(rep))
}

// AdminStats — GET /api/admin/stats.
func (h *APIHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.reports.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalUsers:           st.TotalUsers,
		TotalReports:         st.TotalReports,
		OpenReports:          st.OpenReports,
		DiscordIntegrations:  st.DiscordIntegrations,
		TelegramIntegrations: st.TelegramIntegrations,
	})
}

func mapUser(u *model.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
	if u.Email != "" {
		email := openapi_types.Email(u.Email)
		resp.Email = &email
	}
	return resp
}

// queryParam — пустой параметр означает отсутствие фильтра.
func queryParam(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

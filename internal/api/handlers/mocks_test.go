package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Nickto55/serverReport/internal/api/middleware"
	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/domain/rbac"
	"github.com/Nickto55/serverReport/internal/repository"
	"github.com/Nickto55/serverReport/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// mockReports — мок ReportService.
type mockReports struct {
	createFn       func(ctx context.Context, in service.CreateReportInput) (*model.Report, error)
	getFn          func(ctx context.Context, id int64, userID string) (*model.Report, error)
	listByUserFn   func(ctx context.Context, userID string, limit int) ([]*model.Report, error)
	updateFn       func(ctx context.Context, id int64, userID string, patch repository.ReportPatch) (*model.Report, error)
	deleteFn       func(ctx context.Context, id int64, userID string) error
	listFilteredFn func(ctx context.Context, status, priority *string) ([]*model.ReportWithOwner, error)
	updateStatusFn func(ctx context.Context, id int64, status string) (*model.Report, error)
	statsFn        func(ctx context.Context) (*model.Stats, error)
}

func (m *mockReports) Create(ctx context.Context, in service.CreateReportInput) (*model.Report, error) {
	return m.createFn(ctx, in)
}

func (m *mockReports) Get(ctx context.Context, id int64, userID string) (*model.Report, error) {
	return m.getFn(ctx, id, userID)
}

func (m *mockReports) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Report, error) {
	return m.listByUserFn(ctx, userID, limit)
}

func (m *mockReports) Update(ctx context.Context, id int64, userID string, patch repository.ReportPatch) (*model.Report, error) {
	return m.updateFn(ctx, id, userID, patch)
}

func (m *mockReports) Delete(ctx context.Context, id int64, userID string) error {
	return m.deleteFn(ctx, id, userID)
}

func (m *mockReports) ListFiltered(ctx context.Context, status, priority *string) ([]*model.ReportWithOwner, error) {
	return m.listFilteredFn(ctx, status, priority)
}

func (m *mockReports) UpdateStatus(ctx context.Context, id int64, status string) (*model.Report, error) {
	return m.updateStatusFn(ctx, id, status)
}

func (m *mockReports) Stats(ctx context.Context) (*model.Stats, error) {
	return m.statsFn(ctx)
}

// mockUsers — мок UserService.
type mockUsers struct {
	listFn    func(ctx context.Context) ([]*model.User, error)
	reportsFn func(ctx context.Context, userID string) ([]*model.Report, error)
}

func (m *mockUsers) List(ctx context.Context) ([]*model.User, error) {
	return m.listFn(ctx)
}

func (m *mockUsers) Reports(ctx context.Context, userID string) ([]*model.Report, error) {
	return m.reportsFn(ctx, userID)
}

// mockIdentity — мок IdentityService.
type mockIdentity struct {
	confirmLinkFn func(ctx context.Context, userID, platform, code string) (*model.Integration, error)
	listForUserFn func(ctx context.Context, userID string) ([]*model.Integration, error)
	unlinkFn      func(ctx context.Context, userID, platform, externalID string) error
}

func (m *mockIdentity) ConfirmLink(ctx context.Context, userID, platform, code string) (*model.Integration, error) {
	return m.confirmLinkFn(ctx, userID, platform, code)
}

func (m *mockIdentity) ListForUser(ctx context.Context, userID string) ([]*model.Integration, error) {
	return m.listForUserFn(ctx, userID)
}

func (m *mockIdentity) Unlink(ctx context.Context, userID, platform, externalID string) error {
	return m.unlinkFn(ctx, userID, platform, externalID)
}

// routes собирает chi-роутер с маршрутами handler'а, как в server.New.
func routes(h *APIHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/reports", h.CreateReport)
	r.Get("/api/reports", h.ListReports)
	r.Get("/api/reports/{id}", h.GetReport)
	r.Put("/api/reports/{id}", h.UpdateReport)
	r.Delete("/api/reports/{id}", h.DeleteReport)
	r.Get("/api/admin/users", h.AdminListUsers)
	r.Get("/api/admin/users/{userId}/reports", h.AdminListUserReports)
	r.Get("/api/admin/reports", h.AdminListReports)
	r.Put("/api/admin/reports/{id}/status", h.AdminUpdateReportStatus)
	r.Get("/api/admin/stats", h.AdminStats)
	r.Get("/api/integrations", h.ListIntegrations)
	r.Post("/api/integrations/link", h.LinkIntegration)
	r.Delete("/api/integrations/{platform}/{externalUserId}", h.UnlinkIntegration)
	r.Get("/api/auth/me", h.GetCurrentUser)
	return r
}

// doRequest выполняет запрос от имени пользователя sub (пустой sub — без claims).
func doRequest(h http.Handler, method, target, body, sub, role string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if sub != "" {
		if role == "" {
			role = rbac.RoleUser
		}
		req = req.WithContext(middleware.WithClaims(req.Context(), &middleware.AuthClaims{
			Subject:           sub,
			PreferredUsername: "user-" + sub,
			EffectiveRole:     role,
		}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

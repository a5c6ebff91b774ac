package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/repository"
)

// testLogger — логгер, отбрасывающий вывод.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// --- mockReportRepo ---

type mockReportRepo struct {
	createFn       func(ctx context.Context, rep *model.Report) error
	getForUserFn   func(ctx context.Context, id int64, userID string) (*model.Report, error)
	listByUserFn   func(ctx context.Context, userID string, limit int) ([]*model.Report, error)
	updateFn       func(ctx context.Context, id int64, userID string, patch repository.ReportPatch) (*model.Report, error)
	deleteFn       func(ctx context.Context, id int64, userID string) error
	listFilteredFn func(ctx context.Context, filter repository.ReportFilter) ([]*model.ReportWithOwner, error)
	updateStatusFn func(ctx context.Context, id int64, status string) (*model.Report, error)
}

func (m *mockReportRepo) Create(ctx context.Context, rep *model.Report) error {
	if m.createFn != nil {
		return m.createFn(ctx, rep)
	}
	rep.ID = 1
	rep.CreatedAt = time.Now()
	rep.UpdatedAt = rep.CreatedAt
	return nil
}

func (m *mockReportRepo) GetForUser(ctx context.Context, id int64, userID string) (*model.Report, error) {
	if m.getForUserFn != nil {
		return m.getForUserFn(ctx, id, userID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockReportRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Report, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockReportRepo) Update(ctx context.Context, id int64, userID string, patch repository.ReportPatch) (*model.Report, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, userID, patch)
	}
	return nil, repository.ErrNotFound
}

func (m *mockReportRepo) Delete(ctx context.Context, id int64, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, userID)
	}
	return repository.ErrNotFound
}

func (m *mockReportRepo) ListFiltered(ctx context.Context, filter repository.ReportFilter) ([]*model.ReportWithOwner, error) {
	if m.listFilteredFn != nil {
		return m.listFilteredFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockReportRepo) UpdateStatus(ctx context.Context, id int64, status string) (*model.Report, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil, repository.ErrNotFound
}

// --- mockStatsRepo ---

type mockStatsRepo struct {
	statsFn func(ctx context.Context) (*model.Stats, error)
}

func (m *mockStatsRepo) Stats(ctx context.Context) (*model.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &model.Stats{}, nil
}

// --- mockUserRepo ---

type mockUserRepo struct {
	upsertFn  func(ctx context.Context, u *model.User) error
	getByIDFn func(ctx context.Context, id string) (*model.User, error)
	listFn    func(ctx context.Context) ([]*model.User, error)
}

func (m *mockUserRepo) Upsert(ctx context.Context, u *model.User) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, u)
	}
	u.Role = "user"
	u.Status = model.UserStatusActive
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- mockIntegrationRepo ---

type mockIntegrationRepo struct {
	ensureLinkedFn    func(ctx context.Context, platform, externalID, externalUsername string) (*model.Integration, bool, error)
	getByExternalIDFn func(ctx context.Context, platform, externalID string) (*model.Integration, error)
	setLinkCodeFn     func(ctx context.Context, platform, externalID, code string, expiresAt time.Time) (*model.Integration, error)
	confirmLinkFn     func(ctx context.Context, platform, code, userID string) (*model.Integration, error)
	listByUserFn      func(ctx context.Context, userID string) ([]*model.Integration, error)
	unlinkFn          func(ctx context.Context, platform, externalID, userID string) error
}

func (m *mockIntegrationRepo) EnsureLinked(ctx context.Context, platform, externalID, externalUsername string) (*model.Integration, bool, error) {
	if m.ensureLinkedFn != nil {
		return m.ensureLinkedFn(ctx, platform, externalID, externalUsername)
	}
	return &model.Integration{ID: 1, Platform: platform, ExternalUserID: externalID, ExternalUsername: externalUsername}, true, nil
}

func (m *mockIntegrationRepo) GetByExternalID(ctx context.Context, platform, externalID string) (*model.Integration, error) {
	if m.getByExternalIDFn != nil {
		return m.getByExternalIDFn(ctx, platform, externalID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockIntegrationRepo) SetLinkCode(ctx context.Context, platform, externalID, code string, expiresAt time.Time) (*model.Integration, error) {
	if m.setLinkCodeFn != nil {
		return m.setLinkCodeFn(ctx, platform, externalID, code, expiresAt)
	}
	return &model.Integration{Platform: platform, ExternalUserID: externalID, LinkCode: &code, LinkCodeExpiresAt: &expiresAt}, nil
}

func (m *mockIntegrationRepo) ConfirmLink(ctx context.Context, platform, code, userID string) (*model.Integration, error) {
	if m.confirmLinkFn != nil {
		return m.confirmLinkFn(ctx, platform, code, userID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockIntegrationRepo) ListByUser(ctx context.Context, userID string) ([]*model.Integration, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockIntegrationRepo) Unlink(ctx context.Context, platform, externalID, userID string) error {
	if m.unlinkFn != nil {
		return m.unlinkFn(ctx, platform, externalID, userID)
	}
	return repository.ErrNotFound
}

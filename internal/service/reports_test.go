package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/repository"
)

func newTestReportService(repo *mockReportRepo) *ReportService {
	return NewReportService(repo, &mockStatsRepo{}, testLogger())
}

func TestReportService_Create_Defaults(t *testing.T) {
	var saved *model.Report
	repo := &mockReportRepo{
		createFn: func(_ context.Context, rep *model.Report) error {
			saved = rep
			rep.ID = 42
			return nil
		},
	}
	svc := newTestReportService(repo)

	rep, err := svc.Create(context.Background(), CreateReportInput{
		UserID:      "u-1",
		Title:       "  Не работает вход  ",
		Description: "Кнопка входа ничего не делает",
		Category:    strPtr("   "),
	})
	if err != nil {
		t.Fatalf("Create ошибка: %v", err)
	}
	if saved == nil {
		t.Fatal("репозиторий не вызван")
	}
	if rep.ID != 42 {
		t.Errorf("ID = %d, ожидали 42", rep.ID)
	}
	if rep.Status != model.StatusOpen {
		t.Errorf("Status = %q, ожидали open", rep.Status)
	}
	if rep.Priority != model.PriorityMedium {
		t.Errorf("Priority = %q, ожидали medium", rep.Priority)
	}
	if rep.Source != model.SourceWebsite {
		t.Errorf("Source = %q, ожидали website", rep.Source)
	}
	if rep.Title != "Не работает вход" {
		t.Errorf("Title = %q, ожидали без пробелов по краям", rep.Title)
	}
	if rep.Category != nil {
		t.Errorf("Category = %q, пустая категория должна храниться как NULL", *rep.Category)
	}
}

func TestReportService_Create_Validation(t *testing.T) {
	valid := CreateReportInput{
		UserID:      "u-1",
		Title:       "Заголовок",
		Description: "Достаточно длинное описание",
	}

	tests := []struct {
		name   string
		modify func(in *CreateReportInput)
	}{
		{"заголовок короче 5 символов", func(in *CreateReportInput) { in.Title = "Баг" }},
		{"заголовок из пробелов", func(in *CreateReportInput) { in.Title = "         " }},
		{"описание короче 10 символов", func(in *CreateReportInput) { in.Description = "Коротко" }},
		{"заголовок длиннее 255 символов", func(in *CreateReportInput) { in.Title = strings.Repeat("я", 256) }},
		{"неизвестный приоритет", func(in *CreateReportInput) { in.Priority = strPtr("urgent") }},
		{"неизвестный источник", func(in *CreateReportInput) { in.Source = strPtr("slack") }},
		{"длинная категория", func(in *CreateReportInput) { in.Category = strPtr(strings.Repeat("c", 101)) }},
		{"без владельца", func(in *CreateReportInput) { in.UserID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReportRepo{
				createFn: func(_ context.Context, _ *model.Report) error {
					t.Error("репозиторий не должен вызываться при ошибке валидации")
					return nil
				},
			}
			in := valid
			tt.modify(&in)

			_, err := newTestReportService(repo).Create(context.Background(), in)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ожидали ErrValidation, получили %v", err)
			}
		})
	}
}

func TestReportService_Create_RuneLength(t *testing.T) {
	// 5 кириллических символов — 10 байт, но ровно минимум по символам
	svc := newTestReportService(&mockReportRepo{})
	_, err := svc.Create(context.Background(), CreateReportInput{
		UserID: "u-1", Title: "Отчёт", Description: "Десять сим",
		Source: strPtr(model.SourceTelegram), Priority: strPtr(model.PriorityCritical),
	})
	if err != nil {
		t.Fatalf("Create ошибка: %v", err)
	}
}

func TestReportService_Get_OtherUser(t *testing.T) {
	repo := &mockReportRepo{
		getForUserFn: func(_ context.Context, id int64, userID string) (*model.Report, error) {
			if userID != "owner" {
				return nil, repository.ErrNotFound
			}
			return &model.Report{ID: id, UserID: userID}, nil
		},
	}
	svc := newTestReportService(repo)

	if _, err := svc.Get(context.Background(), 7, "owner"); err != nil {
		t.Fatalf("Get(owner) ошибка: %v", err)
	}
	if _, err := svc.Get(context.Background(), 7, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(intruder) = %v, ожидали ErrNotFound", err)
	}
}

func TestReportService_Update(t *testing.T) {
	t.Run("передаётся только изменённое поле", func(t *testing.T) {
		repo := &mockReportRepo{
			updateFn: func(_ context.Context, id int64, userID string, patch repository.ReportPatch) (*model.Report, error) {
				if patch.Title != nil || patch.Description != nil || patch.Category != nil || patch.Priority != nil {
					t.Errorf("в patch попали непереданные поля: %+v", patch)
				}
				if patch.Status == nil || *patch.Status != model.StatusInProgress {
					t.Errorf("Status = %v, ожидали in_progress", patch.Status)
				}
				return &model.Report{ID: id, UserID: userID, Status: *patch.Status, UpdatedAt: time.Now()}, nil
			},
		}
		rep, err := newTestReportService(repo).Update(context.Background(), 1, "u-1",
			repository.ReportPatch{Status: strPtr(model.StatusInProgress)})
		if err != nil {
			t.Fatalf("Update ошибка: %v", err)
		}
		if rep.Status != model.StatusInProgress {
			t.Errorf("Status = %q", rep.Status)
		}
	})

	invalid := []struct {
		name  string
		patch repository.ReportPatch
	}{
		{"короткий заголовок", repository.ReportPatch{Title: strPtr("abc")}},
		{"короткое описание", repository.ReportPatch{Description: strPtr("мало")}},
		{"неизвестный статус", repository.ReportPatch{Status: strPtr("done")}},
		{"неизвестный приоритет", repository.ReportPatch{Priority: strPtr("asap")}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReportRepo{
				updateFn: func(context.Context, int64, string, repository.ReportPatch) (*model.Report, error) {
					t.Error("репозиторий не должен вызываться")
					return nil, nil
				},
			}
			_, err := newTestReportService(repo).Update(context.Background(), 1, "u-1", tt.patch)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ожидали ErrValidation, получили %v", err)
			}
		})
	}

	t.Run("чужой отчёт", func(t *testing.T) {
		_, err := newTestReportService(&mockReportRepo{}).Update(context.Background(), 1, "u-2",
			repository.ReportPatch{Title: strPtr("Новый заголовок")})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("ожидали ErrNotFound, получили %v", err)
		}
	})
}

func TestReportService_Delete(t *testing.T) {
	svc := newTestReportService(&mockReportRepo{
		deleteFn: func(_ context.Context, id int64, _ string) error {
			if id == 1 {
				return nil
			}
			return repository.ErrNotFound
		},
	})

	if err := svc.Delete(context.Background(), 1, "u-1"); err != nil {
		t.Errorf("Delete(1) ошибка: %v", err)
	}
	if err := svc.Delete(context.Background(), 2, "u-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(2) = %v, ожидали ErrNotFound", err)
	}
}

func TestReportService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantErr error
	}{
		{"open", model.StatusOpen, nil},
		{"in_progress", model.StatusInProgress, nil},
		{"resolved", model.StatusResolved, nil},
		{"closed", model.StatusClosed, nil},
		{"неизвестный статус", "archived", ErrValidation},
		{"пустой статус", "", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			repo := &mockReportRepo{
				updateStatusFn: func(_ context.Context, id int64, status string) (*model.Report, error) {
					called = true
					return &model.Report{ID: id, Status: status}, nil
				},
			}
			_, err := newTestReportService(repo).UpdateStatus(context.Background(), 5, tt.status)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("UpdateStatus ошибка: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ожидали %v, получили %v", tt.wantErr, err)
			}
			if called {
				t.Error("недопустимый статус не должен доходить до репозитория")
			}
		})
	}
}

func TestReportService_ListFiltered(t *testing.T) {
	var got repository.ReportFilter
	repo := &mockReportRepo{
		listFilteredFn: func(_ context.Context, filter repository.ReportFilter) ([]*model.ReportWithOwner, error) {
			got = filter
			return []*model.ReportWithOwner{{Username: "alice"}}, nil
		},
	}
	svc := newTestReportService(repo)

	list, err := svc.ListFiltered(context.Background(), strPtr(model.StatusOpen), nil)
	if err != nil {
		t.Fatalf("ListFiltered ошибка: %v", err)
	}
	if len(list) != 1 || got.Status == nil || *got.Status != model.StatusOpen || got.Priority != nil {
		t.Errorf("фильтр передан неверно: %+v", got)
	}

	if _, err := svc.ListFiltered(context.Background(), nil, strPtr("urgent")); !errors.Is(err, ErrValidation) {
		t.Errorf("ожидали ErrValidation для priority=urgent, получили %v", err)
	}
}

func TestReportService_StoreErrorWrapped(t *testing.T) {
	storeErr := errors.New("connection reset")
	svc := newTestReportService(&mockReportRepo{
		listByUserFn: func(context.Context, string, int) ([]*model.Report, error) {
			return nil, storeErr
		},
	})

	_, err := svc.ListByUser(context.Background(), "u-1", 10)
	if !errors.Is(err, storeErr) {
		t.Errorf("ошибка хранилища должна оборачиваться, получили %v", err)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		t.Errorf("ошибка хранилища не должна маскироваться под доменную: %v", err)
	}
}

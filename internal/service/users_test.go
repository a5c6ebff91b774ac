package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/repository"
)

func TestUserService_Provision(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		username string
		status   string
		wantErr  error
		wantName string
	}{
		{name: "активный пользователь", id: "sub-1", username: "alice", status: model.UserStatusActive, wantName: "alice"},
		{name: "без username используется sub", id: "sub-2", status: model.UserStatusActive, wantName: "sub-2"},
		{name: "заблокированный", id: "sub-3", username: "mallory", status: model.UserStatusBlocked, wantErr: ErrForbidden, wantName: "mallory"},
		{name: "пустой sub", id: "", wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{
				upsertFn: func(_ context.Context, u *model.User) error {
					u.Role = "user"
					u.Status = tt.status
					return nil
				},
			}
			svc := NewUserService(repo, &mockReportRepo{}, testLogger())

			u, err := svc.Provision(context.Background(), tt.id, tt.username, "")
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("ожидали %v, получили %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Provision ошибка: %v", err)
			}
			if tt.wantName != "" && (u == nil || u.Username != tt.wantName) {
				t.Errorf("Username = %v, ожидали %q", u, tt.wantName)
			}
		})
	}
}

func TestUserService_Reports(t *testing.T) {
	users := &mockUserRepo{
		getByIDFn: func(_ context.Context, id string) (*model.User, error) {
			if id == "known" {
				return &model.User{ID: id}, nil
			}
			return nil, repository.ErrNotFound
		},
	}
	reports := &mockReportRepo{
		listByUserFn: func(_ context.Context, userID string, limit int) ([]*model.Report, error) {
			if limit != 0 {
				t.Errorf("limit = %d, администратор получает все отчёты", limit)
			}
			return []*model.Report{{ID: 1, UserID: userID}}, nil
		},
	}
	svc := NewUserService(users, reports, testLogger())

	list, err := svc.Reports(context.Background(), "known")
	if err != nil || len(list) != 1 {
		t.Fatalf("Reports = %v, %v", list, err)
	}
	if _, err := svc.Reports(context.Background(), "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reports(unknown) = %v, ожидали ErrNotFound", err)
	}
}

// users.go — пользователи website: создание из JWT и административный просмотр.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/repository"
)

// UserService — сервис пользователей website.
type UserService struct {
	users   repository.UserRepository
	reports repository.ReportRepository
	logger  *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(
	users repository.UserRepository,
	reports repository.ReportRepository,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:   users,
		reports: reports,
		logger:  logger.With(slog.String("component", "user_service")),
	}
}

// Provision создаёт или обновляет пользователя по данным проверенного токена.
// Заблокированный пользователь возвращается вместе с ErrForbidden.
func (s *UserService) Provision(ctx context.Context, id, username, email string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: пустой subject токена", ErrValidation)
	}
	if username == "" {
		username = id
	}

	u := &model.User{ID: id, Username: username, Email: email}
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("сохранение пользователя: %w", err)
	}
	if u.IsBlocked() {
		s.logger.Warn("Запрос заблокированного пользователя",
			slog.String("user_id", u.ID),
			slog.String("username", u.Username),
		)
		return u, ErrForbidden
	}
	return u, nil
}

// List возвращает всех пользователей (администратор).
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка пользователей: %w", err)
	}
	return users, nil
}

// Reports возвращает все отчёты указанного пользователя (администратор).
// ErrNotFound — если пользователя нет.
func (s *UserService) Reports(ctx context.Context, userID string) ([]*model.Report, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	reports, err := s.reports.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("получение отчётов пользователя: %w", err)
	}
	return reports, nil
}

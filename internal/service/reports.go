// reports.go — хранилище отчётов: CRUD с проверкой владельца и
// централизованной валидацией для всех фронтендов (website, Discord, Telegram).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/repository"
)

// CreateReportInput — параметры создания отчёта.
// nil в Category, Priority, Source — значение по умолчанию.
type CreateReportInput struct {
	UserID      string
	Title       string
	Description string
	Category    *string
	Priority    *string
	Source      *string
}

// ReportService — сервис отчётов.
type ReportService struct {
	repo   repository.ReportRepository
	stats  repository.StatsRepository
	logger *slog.Logger
}

// NewReportService создаёт сервис отчётов.
func NewReportService(
	repo repository.ReportRepository,
	stats repository.StatsRepository,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		repo:   repo,
		stats:  stats,
		logger: logger.With(slog.String("component", "report_service")),
	}
}

// Create валидирует и сохраняет отчёт.
// По умолчанию: priority=medium, status=open, source=website.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*model.Report, error) {
	rep := &model.Report{
		UserID:      in.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    normalizeCategory(in.Category),
		Priority:    model.PriorityMedium,
		Status:      model.StatusOpen,
		Source:      model.SourceWebsite,
	}
	if in.Priority != nil {
		rep.Priority = *in.Priority
	}
	if in.Source != nil {
		rep.Source = *in.Source
	}

	if rep.UserID == "" {
		return nil, fmt.Errorf("%w: не указан владелец отчёта", ErrValidation)
	}
	if err := validateTitle(rep.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(rep.Description); err != nil {
		return nil, err
	}
	if err := validateCategory(rep.Category); err != nil {
		return nil, err
	}
	if !model.IsValidPriority(rep.Priority) {
		return nil, invalidEnum("priority", rep.Priority, model.Priorities)
	}
	if !model.IsValidSource(rep.Source) {
		return nil, invalidEnum("source", rep.Source, model.Sources)
	}

	if err := s.repo.Create(ctx, rep); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь %s", ErrNotFound, rep.UserID)
		}
		return nil, fmt.Errorf("сохранение отчёта: %w", err)
	}

	reportsCreatedTotal.WithLabelValues(rep.Source).Inc()
	s.logger.Info("Отчёт создан",
		slog.Int64("report_id", rep.ID),
		slog.String("user_id", rep.UserID),
		slog.String("source", rep.Source),
		slog.String("priority", rep.Priority),
	)
	return rep, nil
}

// Get возвращает отчёт владельца. Чужой отчёт неотличим от несуществующего.
func (s *ReportService) Get(ctx context.Context, id int64, userID string) (*model.Report, error) {
	rep, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение отчёта: %w", err)
	}
	return rep, nil
}

// ListByUser возвращает отчёты пользователя, новые первыми. limit <= 0 — все.
func (s *ReportService) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Report, error) {
	reports, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("получение отчётов пользователя: %w", err)
	}
	return reports, nil
}

// Update применяет частичное обновление. Каждое переданное поле
// валидируется по тем же правилам, что и при создании.
func (s *ReportService) Update(ctx context.Context, id int64, userID string, patch repository.ReportPatch) (*model.Report, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if err := validateDescription(desc); err != nil {
			return nil, err
		}
		patch.Description = &desc
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if err := validateCategory(&category); err != nil {
			return nil, err
		}
		patch.Category = &category
	}
	if patch.Priority != nil && !model.IsValidPriority(*patch.Priority) {
		return nil, invalidEnum("priority", *patch.Priority, model.Priorities)
	}
	if patch.Status != nil && !model.IsValidStatus(*patch.Status) {
		return nil, invalidEnum("status", *patch.Status, model.Statuses)
	}

	rep, err := s.repo.Update(ctx, id, userID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление отчёта: %w", err)
	}

	s.logger.Info("Отчёт обновлён",
		slog.Int64("report_id", id),
		slog.String("user_id", userID),
	)
	return rep, nil
}

// Delete удаляет отчёт владельца.
func (s *ReportService) Delete(ctx context.Context, id int64, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление отчёта: %w", err)
	}

	s.logger.Info("Отчёт удалён",
		slog.Int64("report_id", id),
		slog.String("user_id", userID),
	)
	return nil
}

// ListFiltered возвращает все отчёты с именами владельцев (администратор).
// Фильтры объединяются по AND; недопустимое значение — ошибка валидации.
func (s *ReportService) ListFiltered(ctx context.Context, status, priority *string) ([]*model.ReportWithOwner, error) {
	if status != nil && !model.IsValidStatus(*status) {
		return nil, invalidEnum("status", *status, model.Statuses)
	}
	if priority != nil && !model.IsValidPriority(*priority) {
		return nil, invalidEnum("priority", *priority, model.Priorities)
	}

	reports, err := s.repo.ListFiltered(ctx, repository.ReportFilter{Status: status, Priority: priority})
	if err != nil {
		return nil, fmt.Errorf("получение списка отчётов: %w", err)
	}
	return reports, nil
}

// UpdateStatus меняет статус любого отчёта (администратор).
// Переходы не ограничены: допустим любой статус из любого.
func (s *ReportService) UpdateStatus(ctx context.Context, id int64, status string) (*model.Report, error) {
	if !model.IsValidStatus(status) {
		return nil, invalidEnum("status", status, model.Statuses)
	}

	rep, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление статуса отчёта: %w", err)
	}

	s.logger.Info("Статус отчёта изменён администратором",
		slog.Int64("report_id", id),
		slog.String("status", status),
	)
	return rep, nil
}

// Stats возвращает агрегированные счётчики.
func (s *ReportService) Stats(ctx context.Context) (*model.Stats, error) {
	st, err := s.stats.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение статистики: %w", err)
	}
	return st, nil
}

// --- Валидация ---

func validateTitle(title string) error {
	n := model.RuneLen(title)
	if n < model.MinTitleLength {
		return fmt.Errorf("%w: заголовок должен содержать не менее %d символов", ErrValidation, model.MinTitleLength)
	}
	if n > model.MaxTitleLength {
		return fmt.Errorf("%w: заголовок должен содержать не более %d символов", ErrValidation, model.MaxTitleLength)
	}
	return nil
}

func validateDescription(desc string) error {
	if model.RuneLen(desc) < model.MinDescriptionLength {
		return fmt.Errorf("%w: описание должно содержать не менее %d символов", ErrValidation, model.MinDescriptionLength)
	}
	return nil
}

func validateCategory(category *string) error {
	if category != nil && model.RuneLen(*category) > model.MaxCategoryLength {
		return fmt.Errorf("%w: категория должна содержать не более %d символов", ErrValidation, model.MaxCategoryLength)
	}
	return nil
}

// normalizeCategory убирает пробелы; пустая категория хранится как NULL.
func normalizeCategory(category *string) *string {
	if category == nil {
		return nil
	}
	c := strings.TrimSpace(*category)
	if c == "" {
		return nil
	}
	return &c
}

func invalidEnum(field, value string, allowed []string) error {
	return fmt.Errorf("%w: недопустимое значение %s %q, допустимые: %s",
		ErrValidation, field, value, strings.Join(allowed, ", "))
}

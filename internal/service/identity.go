// identity.go — связывание внешних учётных записей (Discord, Telegram)
// с пользователями website.
//
// Запись интеграции создаётся при первом обращении к боту и никогда не
// удаляется. Привязка к пользователю выполняется одноразовым кодом:
// бот выдаёт код (/link), пользователь website подтверждает его через API.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/repository"
)

// linkCodeAlphabet — символы кода привязки без похожих друг на друга (0/O, 1/I).
// 32 символа: байт по модулю 32 даёт равномерное распределение.
const linkCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// LinkCodeLength — длина кода привязки.
const LinkCodeLength = 8

// IdentityService — сервис связывания учётных записей.
type IdentityService struct {
	repo        repository.IntegrationRepository
	linkCodeTTL time.Duration
	newCode     func() (string, error)
	now         func() time.Time
	logger      *slog.Logger
}

// NewIdentityService создаёт сервис связывания.
// linkCodeTTL — время жизни кода привязки (SR_LINK_CODE_TTL).
func NewIdentityService(
	repo repository.IntegrationRepository,
	linkCodeTTL time.Duration,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		repo:        repo,
		linkCodeTTL: linkCodeTTL,
		newCode:     generateLinkCode,
		now:         time.Now,
		logger:      logger.With(slog.String("component", "identity_service")),
	}
}

// EnsureLinked возвращает запись интеграции, создавая её при первом обращении.
// Идемпотентна и безопасна при конкурентных вызовах. Пользователя website не создаёт.
func (s *IdentityService) EnsureLinked(ctx context.Context, platform, externalID, externalUsername string) (*model.Integration, error) {
	if err := validateExternal(platform, externalID); err != nil {
		return nil, err
	}

	integ, created, err := s.repo.EnsureLinked(ctx, platform, externalID, externalUsername)
	if err != nil {
		return nil, fmt.Errorf("регистрация интеграции: %w", err)
	}

	if created {
		integrationsCreatedTotal.WithLabelValues(platform).Inc()
		s.logger.Info("Интеграция зарегистрирована",
			slog.String("platform", platform),
			slog.String("external_user_id", externalID),
			slog.String("external_username", externalUsername),
		)
	}
	return integ, nil
}

// ResolveUser возвращает ID пользователя website, привязанного к учётной записи платформы.
// ErrIntegrationNotFound — записи нет (пользователь не выполнил /start),
// ErrNotLinked — запись есть, но не привязана.
func (s *IdentityService) ResolveUser(ctx context.Context, platform, externalID string) (string, error) {
	if err := validateExternal(platform, externalID); err != nil {
		return "", err
	}

	integ, err := s.repo.GetByExternalID(ctx, platform, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrIntegrationNotFound
		}
		return "", fmt.Errorf("поиск интеграции: %w", err)
	}
	if !integ.IsLinked() {
		return "", ErrNotLinked
	}
	return *integ.UserID, nil
}

// IssueLinkCode выдаёт новый одноразовый код привязки для учётной записи платформы.
// Запись интеграции создаётся, если её ещё нет. Предыдущий код перестаёт действовать.
func (s *IdentityService) IssueLinkCode(ctx context.Context, platform, externalID, externalUsername string) (*model.Integration, error) {
	if _, err := s.EnsureLinked(ctx, platform, externalID, externalUsername); err != nil {
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("генерация кода привязки: %w", err)
	}
	expiresAt := s.now().Add(s.linkCodeTTL)

	integ, err := s.repo.SetLinkCode(ctx, platform, externalID, code, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("сохранение кода привязки: %w", err)
	}

	s.logger.Info("Выдан код привязки",
		slog.String("platform", platform),
		slog.String("external_user_id", externalID),
		slog.Time("expires_at", expiresAt),
	)
	return integ, nil
}

// ConfirmLink привязывает учётную запись с действующим кодом к пользователю website.
func (s *IdentityService) ConfirmLink(ctx context.Context, userID, platform, code string) (*model.Integration, error) {
	if !model.IsValidPlatform(platform) {
		return nil, fmt.Errorf("%w: неизвестная платформа %q", ErrValidation, platform)
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != LinkCodeLength {
		return nil, fmt.Errorf("%w: код привязки должен содержать %d символов", ErrValidation, LinkCodeLength)
	}

	integ, err := s.repo.ConfirmLink(ctx, platform, code, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidLinkCode
		}
		return nil, fmt.Errorf("привязка интеграции: %w", err)
	}

	s.logger.Info("Интеграция привязана",
		slog.String("platform", platform),
		slog.String("external_user_id", integ.ExternalUserID),
		slog.String("user_id", userID),
	)
	return integ, nil
}

// ListForUser возвращает интеграции, привязанные к пользователю website.
func (s *IdentityService) ListForUser(ctx context.Context, userID string) ([]*model.Integration, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение интеграций: %w", err)
	}
	return list, nil
}

// Unlink отвязывает учётную запись платформы от пользователя website.
// Запись интеграции сохраняется.
func (s *IdentityService) Unlink(ctx context.Context, userID, platform, externalID string) error {
	if err := validateExternal(platform, externalID); err != nil {
		return err
	}

	if err := s.repo.Unlink(ctx, platform, externalID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("отвязка интеграции: %w", err)
	}

	s.logger.Info("Интеграция отвязана",
		slog.String("platform", platform),
		slog.String("external_user_id", externalID),
		slog.String("user_id", userID),
	)
	return nil
}

func validateExternal(platform, externalID string) error {
	if !model.IsValidPlatform(platform) {
		return fmt.Errorf("%w: неизвестная платформа %q", ErrValidation, platform)
	}
	if externalID == "" {
		return fmt.Errorf("%w: пустой идентификатор пользователя платформы", ErrValidation)
	}
	return nil
}

// generateLinkCode возвращает случайный код из linkCodeAlphabet.
func generateLinkCode() (string, error) {
	buf := make([]byte, LinkCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = linkCodeAlphabet[int(b)%len(linkCodeAlphabet)]
	}
	return string(buf), nil
}

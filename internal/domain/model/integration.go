package model

import (
	"slices"
	"time"
)

// Платформы чат-ботов.
const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"
)

// Platforms — поддерживаемые платформы.
var Platforms = []string{PlatformDiscord, PlatformTelegram}

// IsValidPlatform проверяет, поддерживается ли платформа.
func IsValidPlatform(p string) bool {
	return slices.Contains(Platforms, p)
}

// Integration — связь внешней учётной записи (Discord, Telegram) с пользователем.
// Хранится в таблицах discord_integrations и telegram_integrations.
// Не удаляется: отвязка только очищает UserID.
type Integration struct {
	// ID — идентификатор записи в таблице платформы
	ID int64
	// Platform — discord или telegram
	Platform string
	// ExternalUserID — ID пользователя на платформе
	ExternalUserID string
	// ExternalUsername — имя пользователя на платформе
	ExternalUsername string
	// UserID — привязанный пользователь website, nil пока не привязан
	UserID *string
	// LinkCode — одноразовый код привязки, nil если не выпущен
	LinkCode *string
	// LinkCodeExpiresAt — срок действия кода привязки
	LinkCodeExpiresAt *time.Time
	// CreatedAt — время первого обращения к боту
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения
	UpdatedAt time.Time
}

// IsLinked — привязана ли запись к пользователю website.
func (i *Integration) IsLinked() bool {
	return i.UserID != nil
}

package model

import (
	"slices"
	"time"
	"unicode/utf8"
)

// Приоритеты отчёта.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Статусы отчёта. Переходы между статусами не ограничены.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Источники отчёта — фронтенд, через который он создан.
const (
	SourceWebsite  = "website"
	SourceDiscord  = "discord"
	SourceTelegram = "telegram"
)

// Ограничения на длину полей отчёта (в символах).
const (
	MinTitleLength       = 5
	MinDescriptionLength = 10
	MaxTitleLength       = 255
	MaxCategoryLength    = 100
)

// Допустимые значения перечислений в порядке отображения.
var (
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	Statuses   = []string{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
	Sources    = []string{SourceWebsite, SourceDiscord, SourceTelegram}
)

// Report — отчёт пользователя. Хранится в таблице reports.
type Report struct {
	// ID — числовой идентификатор (короткий, удобен для ввода в чате)
	ID int64
	// UserID — владелец отчёта
	UserID string
	// Title — заголовок (не короче MinTitleLength символов)
	Title string
	// Description — описание (не короче MinDescriptionLength символов)
	Description string
	// Category — произвольная категория, nil если не задана
	Category *string
	// Priority — low, medium, high, critical
	Priority string
	// Status — open, in_progress, resolved, closed
	Status string
	// Source — website, discord, telegram
	Source string
	// CreatedAt — время создания
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения
	UpdatedAt time.Time
}

// ReportWithOwner — отчёт с именем владельца (административный список).
type ReportWithOwner struct {
	Report
	Username string
}

// IsValidPriority проверяет, является ли строка допустимым приоритетом.
func IsValidPriority(p string) bool {
	return slices.Contains(Priorities, p)
}

// IsValidStatus проверяет, является ли строка допустимым статусом.
func IsValidStatus(s string) bool {
	return slices.Contains(Statuses, s)
}

// IsValidSource проверяет, является ли строка допустимым источником.
func IsValidSource(s string) bool {
	return slices.Contains(Sources, s)
}

// RuneLen возвращает длину строки в символах Unicode.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден (или принадлежит другому пользователю).
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNotLinked — интеграция существует, но не привязана к пользователю website.
	ErrNotLinked = errors.New("аккаунт не привязан")
	// ErrIntegrationNotFound — пользователь платформы ещё не зарегистрирован.
	ErrIntegrationNotFound = errors.New("интеграция не найдена")
	// ErrInvalidLinkCode — код привязки неизвестен или истёк.
	ErrInvalidLinkCode = errors.New("неверный или просроченный код привязки")
	// ErrForbidden — действие запрещено (например, пользователь заблокирован).
	ErrForbidden = errors.New("доступ запрещён")
)

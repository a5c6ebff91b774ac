// Пакет model — доменные модели serverReport.
package model

import "time"

// Статусы пользователя.
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// User — пользователь website. Хранится в таблице users.
// Запись создаётся из проверенного JWT при первом аутентифицированном запросе.
type User struct {
	// ID — subject (sub) JWT-токена
	ID string
	// Username — preferred_username из токена
	Username string
	// Email — адрес электронной почты (может быть пустым)
	Email string
	// Role — сохранённая роль (user, admin)
	Role string
	// Status — статус аккаунта (active, blocked)
	Status string
	// CreatedAt — время первого входа
	CreatedAt time.Time
}

// IsBlocked — заблокирован ли пользователь.
func (u *User) IsBlocked() bool {
	return u.Status == UserStatusBlocked
}

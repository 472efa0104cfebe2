package domain

import "time"

// Role определяет права пользователя в системе.
type Role string

const (
	// RoleUser — обычный покупатель.
	RoleUser Role = "user"
	// RoleAdmin — администратор каталога и заказов.
	RoleAdmin Role = "admin"
)

// Valid проверяет, что роль относится к поддерживаемым значениям.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User — учётная запись. PasswordHash хранит bcrypt-хэш; исходный пароль
// за пределы слоя auth не выходит.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

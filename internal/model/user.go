package model

import "time"

// Роли пользователей
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

type User struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	TimeZone  string    `json:"time_zone"` // IANA имя, например "Europe/Berlin"; пустое = UTC
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// IsTutor проверяет является ли пользователь преподавателем
func (u *User) IsTutor() bool {
	return u.Role == RoleTutor
}

// IsStudent проверяет является ли пользователь студентом
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

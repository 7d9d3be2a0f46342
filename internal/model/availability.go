package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityRule представляет шаблон регулярной недельной доступности
// преподавателя. Время хранится в минутах от полуночи в локальной
// таймзоне преподавателя.
type AvailabilityRule struct {
	ID           int64     `json:"id"`
	GroupID      uuid.UUID `json:"group_id"` // идентификатор группы связанных правил
	TutorID      int64     `json:"tutor_id"`
	Weekday      int       `json:"weekday"`       // 0 = Sunday, 6 = Saturday
	StartMinutes int       `json:"start_minutes"` // 0-1439, локальное время
	EndMinutes   int       `json:"end_minutes"`   // 1-1440, локальное время
	SlotMinutes  int       `json:"slot_minutes"`  // 30, 45 или 60
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AvailabilityBlock - разовый интервал недоступности преподавателя
// (отпуск, больничный). Хранится в UTC, не зависит от правил.
type AvailabilityBlock struct {
	ID        int64     `json:"id"`
	TutorID   int64     `json:"tutor_id"`
	StartsAt  time.Time `json:"starts_at"` // UTC
	EndsAt    time.Time `json:"ends_at"`   // UTC
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

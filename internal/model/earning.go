package model

import "time"

// TutorEarningTransaction - неизменяемая запись начисления преподавателю.
// Баланса нет, итог считается суммой всех строк.
type TutorEarningTransaction struct {
	ID        int64     `json:"id"`
	TutorID   int64     `json:"tutor_id"`
	Credits   int       `json:"credits"`
	LessonID  *int64    `json:"lesson_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

package events

import (
	"time"

	"github.com/google/uuid"
)

// Темы доменных событий
const (
	SubjectLessonScheduled    = "lesson.scheduled"
	SubjectLessonRescheduled  = "lesson.rescheduled"
	SubjectLessonCancelled    = "lesson.cancelled"
	SubjectLessonCompleted    = "lesson.completed"
	SubjectLessonNoShow       = "lesson.no_show"
	SubjectLessonStartingSoon = "lesson.starting_soon"
	SubjectCreditsChanged     = "credits.changed"
	SubjectCreditsLow         = "credits.low"
	SubjectEarningAccrued     = "earning.accrued"
)

// LessonEvent - событие жизненного цикла занятия
type LessonEvent struct {
	EventID    uuid.UUID  `json:"event_id"`
	EventType  string     `json:"event_type"`
	LessonID   int64      `json:"lesson_id"`
	CourseID   int64      `json:"course_id"`
	StudentID  int64      `json:"student_id"`
	TutorID    *int64     `json:"tutor_id"`
	StartAt    *time.Time `json:"start_at"`
	EndAt      *time.Time `json:"end_at"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// CreditsEvent - событие изменения кошелька или курсового леджера
type CreditsEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	UserID     int64     `json:"user_id"`
	Amount     int       `json:"amount"`
	Remaining  int       `json:"remaining"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EarningEvent - событие начисления преподавателю
type EarningEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	TutorID    int64     `json:"tutor_id"`
	LessonID   *int64    `json:"lesson_id"`
	Credits    int       `json:"credits"`
	OccurredAt time.Time `json:"occurred_at"`
}

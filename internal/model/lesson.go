package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/muhammadworks94/tutorhub/internal/lifecycle"
)

// Допустимые длительности занятия в минутах
var LessonDurations = []int{30, 45, 60}

// IsValidDuration проверяет поддерживается ли длительность занятия
func IsValidDuration(minutes int) bool {
	for _, d := range LessonDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

// Lesson представляет одну попытку записи на занятие.
// Запись никогда не удаляется физически, только помечается DeletedAt.
type Lesson struct {
	ID        int64  `json:"id"`
	CourseID  int64  `json:"course_id"`
	StudentID int64  `json:"student_id"`
	TutorID   *int64 `json:"tutor_id"` // nil пока преподаватель не назначен

	RequestedFrom   time.Time  `json:"requested_from"`
	RequestedTo     time.Time  `json:"requested_to"`
	Option1         *time.Time `json:"option1"`
	Option2         *time.Time `json:"option2"`
	Option3         *time.Time `json:"option3"`
	DurationMinutes int        `json:"duration_minutes"`

	Status         lifecycle.Status `json:"status"`
	ScheduledStart *time.Time       `json:"scheduled_start"`
	ScheduledEnd   *time.Time       `json:"scheduled_end"`

	RescheduleCount       int        `json:"reschedule_count"`
	RescheduleGroupID     *uuid.UUID `json:"reschedule_group_id"` // группа текущего набора вариантов переноса
	RescheduleRequestedAt *time.Time `json:"reschedule_requested_at"`
	RescheduleRequestedBy *int64     `json:"reschedule_requested_by"`
	ReschedulePenalized   bool       `json:"reschedule_penalized"` // поздний перенос, штраф при одобрении

	CancellationRequested   bool       `json:"cancellation_requested"`
	CancellationRequestedAt *time.Time `json:"cancellation_requested_at"`

	TutorAttended    bool       `json:"tutor_attended"`
	StudentAttended  bool       `json:"student_attended"`
	SessionStartedAt *time.Time `json:"session_started_at"`
	SessionEndedAt   *time.Time `json:"session_ended_at"`
	ReminderSentAt   *time.Time `json:"reminder_sent_at"`

	// Метаданные видеовстречи от внешнего провайдера. Для логики жизненного
	// цикла непрозрачны и необязательны.
	MeetingID      string `json:"meeting_id"`
	MeetingJoinURL string `json:"meeting_join_url"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// Options возвращает предложенные варианты времени без nil-значений
func (l *Lesson) Options() []time.Time {
	var opts []time.Time
	for _, o := range []*time.Time{l.Option1, l.Option2, l.Option3} {
		if o != nil {
			opts = append(opts, *o)
		}
	}
	return opts
}

// HasOption проверяет входит ли момент в предложенные варианты
func (l *Lesson) HasOption(at time.Time) bool {
	for _, o := range l.Options() {
		if o.Equal(at) {
			return true
		}
	}
	return false
}

// NoOneAttended проверяет что ни одна из сторон не пришла на занятие
func (l *Lesson) NoOneAttended() bool {
	return !l.TutorAttended && !l.StudentAttended
}

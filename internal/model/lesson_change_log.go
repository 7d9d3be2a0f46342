package model

import "time"

// Действия фиксируемые в журнале изменений занятия
const (
	ChangeActionRequested             = "requested"
	ChangeActionScheduled             = "scheduled"
	ChangeActionRejected              = "rejected"
	ChangeActionRescheduleRequested   = "reschedule_requested"
	ChangeActionRescheduled           = "rescheduled"
	ChangeActionCancellationRequested = "cancellation_requested"
	ChangeActionCancelled             = "cancelled"
	ChangeActionCompleted             = "completed"
	ChangeActionNoShow                = "no_show"
)

// LessonChangeLog - неизменяемая запись аудита по одному переходу занятия.
// Строки только добавляются, никогда не изменяются и не удаляются.
// Это единственный источник исторической правды: сам Lesson хранит
// только текущее состояние.
type LessonChangeLog struct {
	ID        int64      `json:"id"`
	LessonID  int64      `json:"lesson_id"`
	ActorID   int64      `json:"actor_id"`
	Action    string     `json:"action"`
	OldStart  *time.Time `json:"old_start"`
	OldEnd    *time.Time `json:"old_end"`
	NewStart  *time.Time `json:"new_start"`
	NewEnd    *time.Time `json:"new_end"`
	Note      string     `json:"note"`
	CreatedAt time.Time  `json:"created_at"`
}

package lifecycle

// Status представляет текущее состояние занятия
type Status string

const (
	StatusPending               Status = "pending"                // Ожидает решения по заявке
	StatusScheduled             Status = "scheduled"              // Назначено на конкретное время
	StatusRescheduleRequested   Status = "reschedule_requested"   // Запрошен перенос
	StatusRescheduled           Status = "rescheduled"            // Перенесено на новое время
	StatusCancellationRequested Status = "cancellation_requested" // Запрошена отмена (требует одобрения)
	StatusCompleted             Status = "completed"              // Завершено
	StatusCancelled             Status = "cancelled"              // Отменено
	StatusRejected              Status = "rejected"               // Отклонено
	StatusNoShow                Status = "no_show"                // Никто не пришёл
)

// IsTerminal проверяет является ли статус финальным
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected, StatusNoShow:
		return true
	}
	return false
}

// IsActive проверяет является ли занятие активным (не финальным)
func (s Status) IsActive() bool {
	return !s.IsTerminal()
}

// HasScheduledWindow проверяет должно ли занятие в этом статусе иметь назначенное время
func (s Status) HasScheduledWindow() bool {
	switch s {
	case StatusScheduled, StatusRescheduled, StatusCompleted:
		return true
	}
	return false
}

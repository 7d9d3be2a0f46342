package service

import "time"

// IsLate проверяет попадает ли изменение в "поздний" период: меньше чем за
// windowHours до начала занятия. Начало уже в прошлом - тоже поздно.
func IsLate(start, now time.Time, windowHours int) bool {
	if windowHours <= 0 {
		return false
	}
	return now.After(start.Add(-time.Duration(windowHours) * time.Hour))
}

// rescheduleLimitReached проверяет исчерпан ли лимит переносов занятия.
// Проверяется и при запросе переноса, и при его одобрении: лимит могли
// понизить между двумя шагами.
func rescheduleLimitReached(count, limit int) bool {
	return count >= limit
}

// cancellationRefundPercent возвращает процент возврата за отмену:
// полный при заблаговременной, частичный при поздней
func cancellationRefundPercent(late bool, latePercent int) int {
	if late {
		return latePercent
	}
	return 100
}

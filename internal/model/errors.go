package model

import "errors"

// Доменные ошибки. Сервисы возвращают их (возможно обёрнутыми через %w),
// вызывающая сторона проверяет через errors.Is.
var (
	ErrInvalidRequest          = errors.New("invalid request")
	ErrInsufficientCredits     = errors.New("insufficient credits")
	ErrSlotConflict            = errors.New("slot conflicts with an existing commitment")
	ErrRescheduleLimitExceeded = errors.New("reschedule limit exceeded")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrNotFound                = errors.New("not found")
)

package model

import (
	"fmt"
	"math"
	"time"
)

// Типы операций по курсовому леджеру
const (
	CourseTxAllocated      = "Allocated"
	CourseTxLessonReserved = "LessonReserved"
	CourseTxRefund         = "Refund"
)

// CourseCreditLedger - кредиты выделенные из кошелька под конкретный
// курс, один на пару (студент, курс).
// Инвариант: Remaining = Allocated - Used, Remaining >= 0.
type CourseCreditLedger struct {
	ID               int64     `json:"id"`
	StudentID        int64     `json:"student_id"`
	CourseID         int64     `json:"course_id"`
	CreditsAllocated int       `json:"credits_allocated"`
	CreditsUsed      int       `json:"credits_used"`
	CreditsRemaining int       `json:"credits_remaining"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Allocate добавляет кредиты в курсовой леджер
func (l *CourseCreditLedger) Allocate(credits int) error {
	if credits <= 0 {
		return fmt.Errorf("allocate %d credits: %w", credits, ErrInvalidRequest)
	}
	l.CreditsAllocated += credits
	l.CreditsRemaining += credits
	return nil
}

// Reserve резервирует кредиты под занятие, переводя их из Remaining в Used
func (l *CourseCreditLedger) Reserve(credits int) error {
	if credits <= 0 {
		return fmt.Errorf("reserve %d credits: %w", credits, ErrInvalidRequest)
	}
	if l.CreditsRemaining < credits {
		return fmt.Errorf("course ledger has %d, need %d: %w", l.CreditsRemaining, credits, ErrInsufficientCredits)
	}
	l.CreditsUsed += credits
	l.CreditsRemaining -= credits
	return nil
}

// Refund возвращает кредиты в Remaining. Used не может уйти в минус.
func (l *CourseCreditLedger) Refund(credits int) {
	if credits <= 0 {
		return
	}
	if credits > l.CreditsUsed {
		credits = l.CreditsUsed
	}
	l.CreditsUsed -= credits
	l.CreditsRemaining += credits
}

// Consistent проверяет внутренний инвариант леджера
func (l *CourseCreditLedger) Consistent() bool {
	return l.CreditsRemaining == l.CreditsAllocated-l.CreditsUsed && l.CreditsRemaining >= 0
}

// RefundAmount вычисляет сумму возврата: credits * percent / 100 с
// округлением half-away-from-zero, результат ограничен [0, credits].
func RefundAmount(credits, percent int) int {
	refund := int(math.Round(float64(credits) * float64(percent) / 100.0))
	if refund < 0 {
		refund = 0
	}
	if refund > credits {
		refund = credits
	}
	return refund
}

// CourseLedgerTransaction - неизменяемая запись журнала курсового леджера
type CourseLedgerTransaction struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	CourseID    int64     `json:"course_id"`
	Amount      int       `json:"amount"` // со знаком
	Type        string    `json:"type"`
	Note        string    `json:"note"`
	ReferenceID *int64    `json:"reference_id"` // например, id занятия
	CreatedAt   time.Time `json:"created_at"`
}

package model

import (
	"fmt"
	"time"
)

// Типы операций по кошельку
const (
	CreditTxPurchase          = "purchase"
	CreditTxBonus             = "bonus"
	CreditTxRefund            = "refund"
	CreditTxAdjustment        = "adjustment"
	CreditTxEnrollment        = "enrollment"
	CreditTxLessonReservation = "lesson_reservation"
	CreditTxLessonRefund      = "lesson_refund"
	CreditTxPenalty           = "penalty"
	CreditTxTutorEarning      = "tutor_earning"
)

// CreditsBalance - кошелёк пользователя, один на пользователя.
// Инвариант: Remaining = Total - Used, Remaining >= 0.
type CreditsBalance struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	TotalCredits     int       `json:"total_credits"`
	UsedCredits      int       `json:"used_credits"`
	RemainingCredits int       `json:"remaining_credits"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Apply применяет дельту к кошельку. Положительная сумма увеличивает
// Total и Remaining, отрицательная переводит кредиты в Used и требует
// достаточного остатка. Нулевая дельта недопустима.
func (b *CreditsBalance) Apply(amount int) error {
	if amount == 0 {
		return fmt.Errorf("zero amount: %w", ErrInvalidRequest)
	}

	if amount > 0 {
		b.TotalCredits += amount
		b.RemainingCredits += amount
		return nil
	}

	debit := -amount
	if b.RemainingCredits < debit {
		return fmt.Errorf("wallet has %d, need %d: %w", b.RemainingCredits, debit, ErrInsufficientCredits)
	}
	b.UsedCredits += debit
	b.RemainingCredits -= debit
	return nil
}

// Consistent проверяет внутренний инвариант кошелька
func (b *CreditsBalance) Consistent() bool {
	return b.RemainingCredits == b.TotalCredits-b.UsedCredits && b.RemainingCredits >= 0
}

// TxReference - необязательная ссылка операции на сущность-источник
type TxReference struct {
	Type string `json:"type"` // "lesson", "enrollment", "course" и т.п.
	ID   int64  `json:"id"`
}

// CreditTransaction - неизменяемая запись журнала кошелька.
// BalanceAfter фиксируется в момент записи и никогда не пересчитывается.
type CreditTransaction struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Amount        int       `json:"amount"` // со знаком
	Type          string    `json:"type"`
	Reason        string    `json:"reason"`
	ReferenceType *string   `json:"reference_type"`
	ReferenceID   *int64    `json:"reference_id"`
	BalanceAfter  int       `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muhammadworks94/tutorhub/internal/model"
)

func TestCreditsBalanceApply(t *testing.T) {
	b := &model.CreditsBalance{UserID: 1}

	// пополнение
	require.NoError(t, b.Apply(10))
	require.Equal(t, 10, b.TotalCredits)
	require.Equal(t, 0, b.UsedCredits)
	require.Equal(t, 10, b.RemainingCredits)
	require.True(t, b.Consistent())

	// списание
	require.NoError(t, b.Apply(-3))
	require.Equal(t, 10, b.TotalCredits)
	require.Equal(t, 3, b.UsedCredits)
	require.Equal(t, 7, b.RemainingCredits)
	require.True(t, b.Consistent())

	// списание больше остатка
	err := b.Apply(-8)
	require.ErrorIs(t, err, model.ErrInsufficientCredits)
	require.Equal(t, 7, b.RemainingCredits)
	require.True(t, b.Consistent())

	// нулевая дельта
	require.ErrorIs(t, b.Apply(0), model.ErrInvalidRequest)
}

func TestCreditsBalanceInvariantHoldsOverSequence(t *testing.T) {
	b := &model.CreditsBalance{UserID: 1}
	for _, amount := range []int{5, -2, 10, -1, -7, 3, -3} {
		err := b.Apply(amount)
		if err != nil {
			require.ErrorIs(t, err, model.ErrInsufficientCredits)
		}
		require.True(t, b.Consistent())
		require.GreaterOrEqual(t, b.RemainingCredits, 0)
	}
}

func TestCourseCreditLedger(t *testing.T) {
	l := &model.CourseCreditLedger{StudentID: 1, CourseID: 2}

	require.NoError(t, l.Allocate(3))
	require.Equal(t, 3, l.CreditsAllocated)
	require.Equal(t, 3, l.CreditsRemaining)
	require.True(t, l.Consistent())

	require.NoError(t, l.Reserve(1))
	require.Equal(t, 1, l.CreditsUsed)
	require.Equal(t, 2, l.CreditsRemaining)
	require.True(t, l.Consistent())

	// резерв больше остатка
	require.ErrorIs(t, l.Reserve(3), model.ErrInsufficientCredits)
	require.True(t, l.Consistent())

	// полный возврат
	l.Refund(1)
	require.Equal(t, 0, l.CreditsUsed)
	require.Equal(t, 3, l.CreditsRemaining)
	require.True(t, l.Consistent())

	// возврат сверх использованного обрезается
	l.Refund(5)
	require.Equal(t, 0, l.CreditsUsed)
	require.Equal(t, 3, l.CreditsRemaining)
	require.True(t, l.Consistent())
}

func TestCourseCreditLedgerInvalidAmounts(t *testing.T) {
	l := &model.CourseCreditLedger{}
	require.ErrorIs(t, l.Allocate(0), model.ErrInvalidRequest)
	require.ErrorIs(t, l.Allocate(-1), model.ErrInvalidRequest)
	require.ErrorIs(t, l.Reserve(0), model.ErrInvalidRequest)
}

func TestRefundAmountRounding(t *testing.T) {
	// половина округляется от нуля: 1 кредит при 50% возвращается целиком
	require.Equal(t, 1, model.RefundAmount(1, 50))
	require.Equal(t, 2, model.RefundAmount(3, 50))
	require.Equal(t, 3, model.RefundAmount(3, 100))
	require.Equal(t, 0, model.RefundAmount(3, 0))
	require.Equal(t, 1, model.RefundAmount(2, 50))
	// результат не превышает исходную сумму
	require.Equal(t, 3, model.RefundAmount(3, 150))
	require.Equal(t, 0, model.RefundAmount(3, -10))
}

package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartyLockOrder(t *testing.T) {
	tests := []struct {
		name                  string
		a, b                  int64
		wantFirst, wantSecond int64
	}{
		{"already ordered", 3, 7, 3, 7},
		{"reversed", 7, 3, 3, 7},
		{"equal ids", 5, 5, 5, 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			first, second := partyLockOrder(tc.a, tc.b)
			require.Equal(t, tc.wantFirst, first)
			require.Equal(t, tc.wantSecond, second)
		})
	}
}

func TestPartyLockOrderSymmetric(t *testing.T) {
	// Порядок блокировок не зависит от того, кто преподаватель, а кто студент
	f1, s1 := partyLockOrder(10, 20)
	f2, s2 := partyLockOrder(20, 10)
	require.Equal(t, f1, f2)
	require.Equal(t, s1, s2)
}

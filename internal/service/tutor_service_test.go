package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muhammadworks94/tutorhub/internal/model"
)

func TestValidateRuleWindow(t *testing.T) {
	require.NoError(t, validateRuleWindow(1, 9*60, 12*60, 60))
	require.NoError(t, validateRuleWindow(0, 0, 24*60, 30))

	tests := []struct {
		name                                        string
		weekday, startMinutes, endMinutes, slotMins int
	}{
		{"negative weekday", -1, 9 * 60, 12 * 60, 60},
		{"weekday above saturday", 7, 9 * 60, 12 * 60, 60},
		{"end before start", 1, 12 * 60, 9 * 60, 60},
		{"end past midnight", 1, 23 * 60, 25 * 60, 60},
		{"unsupported slot length", 1, 9 * 60, 12 * 60, 90},
		{"window shorter than slot", 1, 9 * 60, 9*60 + 30, 60},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRuleWindow(tc.weekday, tc.startMinutes, tc.endMinutes, tc.slotMins)
			require.ErrorIs(t, err, model.ErrInvalidRequest)
		})
	}
}

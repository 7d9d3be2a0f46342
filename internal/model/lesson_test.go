package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoOneAttended(t *testing.T) {
	tests := []struct {
		name           string
		tutor, student bool
		wantNoOne      bool
	}{
		{"nobody came", false, false, true},
		{"only tutor came", true, false, false},
		{"only student came", false, true, false},
		{"both came", true, true, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := &Lesson{TutorAttended: tc.tutor, StudentAttended: tc.student}
			require.Equal(t, tc.wantNoOne, l.NoOneAttended())
		})
	}
}

func TestLessonOptions(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	second := base.Add(time.Hour)

	l := &Lesson{Option1: &base, Option3: &second}

	opts := l.Options()
	require.Len(t, opts, 2)
	require.True(t, l.HasOption(base))
	require.True(t, l.HasOption(second))
	require.False(t, l.HasOption(base.Add(30*time.Minute)))
}

func TestIsValidDuration(t *testing.T) {
	require.True(t, IsValidDuration(30))
	require.True(t, IsValidDuration(45))
	require.True(t, IsValidDuration(60))
	require.False(t, IsValidDuration(0))
	require.False(t, IsValidDuration(90))
}

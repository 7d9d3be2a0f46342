package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/muhammadworks94/tutorhub/internal/model"
)

func TestIsLate(t *testing.T) {
	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		now         time.Time
		windowHours int
		want        bool
	}{
		{"well before window", start.Add(-48 * time.Hour), 24, false},
		{"exactly at window boundary", start.Add(-24 * time.Hour), 24, false},
		{"one minute inside window", start.Add(-24*time.Hour + time.Minute), 24, true},
		{"one minute before start", start.Add(-time.Minute), 24, true},
		{"after start", start.Add(time.Hour), 24, true},
		{"zero window never late", start.Add(-time.Minute), 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsLate(start, tc.now, tc.windowHours))
		})
	}
}

func TestRescheduleLimitReached(t *testing.T) {
	require.False(t, rescheduleLimitReached(0, 2))
	require.False(t, rescheduleLimitReached(1, 2))
	require.True(t, rescheduleLimitReached(2, 2))
	require.True(t, rescheduleLimitReached(3, 2))
	// Понижение лимита после запроса переноса должно блокировать одобрение
	require.True(t, rescheduleLimitReached(1, 1))
	require.True(t, rescheduleLimitReached(0, 0))
}

func TestCancellationRefundPercent(t *testing.T) {
	require.Equal(t, 100, cancellationRefundPercent(false, 50))
	require.Equal(t, 50, cancellationRefundPercent(true, 50))
	require.Equal(t, 0, cancellationRefundPercent(true, 0))
}

func TestSetOptions(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	lesson := &model.Lesson{}

	setOptions(lesson, []time.Time{base, base.Add(time.Hour)})
	require.NotNil(t, lesson.Option1)
	require.NotNil(t, lesson.Option2)
	require.Nil(t, lesson.Option3)
	require.True(t, lesson.Option1.Equal(base))
	require.True(t, lesson.Option2.Equal(base.Add(time.Hour)))

	// Новый набор вариантов полностью замещает старый
	setOptions(lesson, []time.Time{base.Add(2 * time.Hour)})
	require.True(t, lesson.Option1.Equal(base.Add(2*time.Hour)))
	require.Nil(t, lesson.Option2)
	require.Nil(t, lesson.Option3)
}

func TestRequestLessonInputValidation(t *testing.T) {
	from := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	valid := RequestLessonInput{
		CourseID:        1,
		StudentID:       2,
		RequestedFrom:   from,
		RequestedTo:     from.Add(7 * 24 * time.Hour),
		DurationMinutes: 60,
	}
	require.NoError(t, validate.Struct(valid))

	missingCourse := valid
	missingCourse.CourseID = 0
	require.Error(t, validate.Struct(missingCourse))

	invertedWindow := valid
	invertedWindow.RequestedTo = from.Add(-time.Hour)
	require.Error(t, validate.Struct(invertedWindow))

	tooManyOptions := valid
	tooManyOptions.Options = []time.Time{from, from, from, from}
	require.Error(t, validate.Struct(tooManyOptions))
}

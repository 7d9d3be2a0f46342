package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/muhammadworks94/tutorhub/internal/events"
)

func TestLessonEventMarshal(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	tutorID := int64(7)

	ev := events.LessonEvent{
		EventID:    uuid.New(),
		EventType:  events.SubjectLessonScheduled,
		LessonID:   42,
		CourseID:   3,
		StudentID:  5,
		TutorID:    &tutorID,
		StartAt:    &start,
		EndAt:      &end,
		OccurredAt: time.Now().UTC(),
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "lesson.scheduled", decoded["event_type"])
	require.Equal(t, float64(42), decoded["lesson_id"])
	require.Equal(t, float64(7), decoded["tutor_id"])
}

func TestCreditsEventMarshal(t *testing.T) {
	ev := events.CreditsEvent{
		EventID:    uuid.New(),
		EventType:  events.SubjectCreditsChanged,
		UserID:     5,
		Amount:     -3,
		Remaining:  7,
		Reason:     "enrollment",
		OccurredAt: time.Now().UTC(),
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "credits.changed", decoded["event_type"])
	require.Equal(t, float64(-3), decoded["amount"])
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	require.NoError(t, p.Publish(events.SubjectCreditsLow, events.CreditsEvent{}))
	p.Close()
}

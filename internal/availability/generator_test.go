package availability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/muhammadworks94/tutorhub/internal/availability"
	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/timeutil"
)

// Понедельник 2 марта 2026, UTC
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func mondayRule(start, end, slot int) *model.AvailabilityRule {
	return &model.AvailabilityRule{
		ID:           1,
		TutorID:      10,
		Weekday:      1, // Monday
		StartMinutes: start,
		EndMinutes:   end,
		SlotMinutes:  slot,
		IsActive:     true,
	}
}

func TestGenerateMondayMorning(t *testing.T) {
	// Правило: понедельник 09:00-12:00, слот 60 минут, таймзона UTC.
	// Ожидаем ровно три слота.
	in := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 1),
		DurationMinutes: 60,
		Now:             monday.Add(-24 * time.Hour),
		Location:        time.UTC,
		Rules:           []*model.AvailabilityRule{mondayRule(9*60, 12*60, 60)},
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	require.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	require.Equal(t, monday.Add(10*time.Hour), slots[0].End)
	require.Equal(t, monday.Add(10*time.Hour), slots[1].Start)
	require.Equal(t, monday.Add(11*time.Hour), slots[2].Start)
	require.Equal(t, monday.Add(12*time.Hour), slots[2].End)
}

func TestGenerateBlockExcludesOverlappingSlot(t *testing.T) {
	// Блок 10:00-10:30 исключает слот 10:00-11:00, но не соседние
	in := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 1),
		DurationMinutes: 60,
		Now:             monday.Add(-24 * time.Hour),
		Location:        time.UTC,
		Rules:           []*model.AvailabilityRule{mondayRule(9*60, 12*60, 60)},
		Blocks: []*model.AvailabilityBlock{
			{TutorID: 10, StartsAt: monday.Add(10 * time.Hour), EndsAt: monday.Add(10*time.Hour + 30*time.Minute)},
		},
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	require.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	require.Equal(t, monday.Add(11*time.Hour), slots[1].Start)
}

func TestGenerateBusyIntervalsExcluded(t *testing.T) {
	// Существующее занятие студента или преподавателя закрывает слот
	in := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 1),
		DurationMinutes: 60,
		Now:             monday.Add(-24 * time.Hour),
		Location:        time.UTC,
		Rules:           []*model.AvailabilityRule{mondayRule(9*60, 12*60, 60)},
		Busy: []timeutil.Interval{
			{Start: monday.Add(11 * time.Hour), End: monday.Add(12 * time.Hour)},
		},
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	for _, s := range slots {
		require.True(t, s.End.Before(monday.Add(11*time.Hour)) || s.End.Equal(monday.Add(11*time.Hour)))
	}
}

func TestGeneratePastSlotsExcluded(t *testing.T) {
	in := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 1),
		DurationMinutes: 60,
		Now:             monday.Add(10*time.Hour + 15*time.Minute), // сейчас 10:15
		Location:        time.UTC,
		Rules:           []*model.AvailabilityRule{mondayRule(9*60, 12*60, 60)},
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, monday.Add(11*time.Hour), slots[0].Start)
}

func TestGenerateDurationMismatchedRulesSkipped(t *testing.T) {
	in := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 1),
		DurationMinutes: 45,
		Now:             monday.Add(-24 * time.Hour),
		Location:        time.UTC,
		Rules:           []*model.AvailabilityRule{mondayRule(9*60, 12*60, 60)}, // правило на 60 минут
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestGenerateInactiveRulesSkipped(t *testing.T) {
	rule := mondayRule(9*60, 12*60, 60)
	rule.IsActive = false

	in := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 1),
		DurationMinutes: 60,
		Now:             monday.Add(-24 * time.Hour),
		Location:        time.UTC,
		Rules:           []*model.AvailabilityRule{rule},
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestGenerateInvalidInput(t *testing.T) {
	valid := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 1),
		DurationMinutes: 60,
		Now:             monday,
		Location:        time.UTC,
	}

	in := valid
	in.DurationMinutes = 50
	_, err := availability.Generate(in)
	require.ErrorIs(t, err, model.ErrInvalidRequest)

	in = valid
	in.To = in.From
	_, err = availability.Generate(in)
	require.ErrorIs(t, err, model.ErrInvalidRequest)

	in = valid
	in.To = in.From.AddDate(0, 0, 32)
	_, err = availability.Generate(in)
	require.ErrorIs(t, err, model.ErrInvalidRequest)
}

func TestGenerateDSTGapSkipped(t *testing.T) {
	loc, ok := timeutil.ResolveLocation("America/New_York")
	require.True(t, ok)

	// Воскресенье 8 марта 2026: 02:00-03:00 местного не существует.
	// Правило 01:00-04:00 со слотами по 60 минут теряет кандидата 02:00.
	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	rule := &model.AvailabilityRule{
		TutorID:      10,
		Weekday:      0, // Sunday
		StartMinutes: 1 * 60,
		EndMinutes:   4 * 60,
		SlotMinutes:  60,
		IsActive:     true,
	}

	in := availability.Input{
		From:            sunday,
		To:              sunday.AddDate(0, 0, 1),
		DurationMinutes: 60,
		Now:             sunday.Add(-24 * time.Hour),
		Location:        loc,
		Rules:           []*model.AvailabilityRule{rule},
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	for _, s := range slots {
		local := s.Start.In(loc)
		require.NotEqual(t, 2, local.Hour())
	}
}

func TestGenerateSlotCap(t *testing.T) {
	// Плотные перекрывающиеся правила на каждый день недели на максимальном
	// диапазоне упираются в ограничитель
	var rules []*model.AvailabilityRule
	for wd := 0; wd < 7; wd++ {
		for _, startOffset := range []int{0, 15} {
			rules = append(rules, &model.AvailabilityRule{
				TutorID:      10,
				Weekday:      wd,
				StartMinutes: startOffset,
				EndMinutes:   24 * 60,
				SlotMinutes:  30,
				IsActive:     true,
			})
		}
	}

	in := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 31),
		DurationMinutes: 30,
		Now:             monday.Add(-24 * time.Hour),
		Location:        time.UTC,
		Rules:           rules,
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Len(t, slots, availability.MaxSlots)
}

func TestGenerateDeduplicatesOverlappingRules(t *testing.T) {
	// Два правила с одинаковым покрытием не удваивают слоты
	in := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 1),
		DurationMinutes: 60,
		Now:             monday.Add(-24 * time.Hour),
		Location:        time.UTC,
		Rules: []*model.AvailabilityRule{
			mondayRule(9*60, 12*60, 60),
			mondayRule(9*60, 12*60, 60),
		},
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Len(t, slots, 3)
}

func TestGenerateOrderedWithinRange(t *testing.T) {
	in := availability.Input{
		From:            monday,
		To:              monday.AddDate(0, 0, 7),
		DurationMinutes: 30,
		Now:             monday.Add(-24 * time.Hour),
		Location:        time.UTC,
		Rules: []*model.AvailabilityRule{
			{TutorID: 10, Weekday: 1, StartMinutes: 9 * 60, EndMinutes: 11 * 60, SlotMinutes: 30, IsActive: true},
			{TutorID: 10, Weekday: 3, StartMinutes: 14 * 60, EndMinutes: 16 * 60, SlotMinutes: 30, IsActive: true},
		},
	}

	slots, err := availability.Generate(in)
	require.NoError(t, err)
	require.Len(t, slots, 8)
	for i, s := range slots {
		require.True(t, !s.Start.Before(in.From))
		require.True(t, !s.End.After(in.To))
		if i > 0 {
			require.True(t, !s.Start.Before(slots[i-1].Start))
		}
	}
}

package availability

import (
	"fmt"
	"time"

	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/timeutil"
)

// Ограничители против патологических наборов правил
const (
	MaxRangeDays = 31
	MaxSlots     = 2000
)

// Slot - кандидат на запись, полуоткрытый интервал [Start, End) в UTC
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Input - всё что нужно генератору, предварительно выбранное из БД.
// Генератор чистый: не ходит в хранилище и не имеет побочных эффектов,
// поэтому безопасно выполняется параллельно и кешируется.
type Input struct {
	From            time.Time // UTC, включительно
	To              time.Time // UTC, не включительно
	DurationMinutes int
	Now             time.Time
	Location        *time.Location // таймзона преподавателя
	Rules           []*model.AvailabilityRule
	Blocks          []*model.AvailabilityBlock
	Busy            []timeutil.Interval // занятые интервалы преподавателя и студента, UTC
}

// Generate разворачивает недельные правила в упорядоченный список свободных
// слотов в UTC. Кандидаты попавшие в несуществующее локальное время
// (переход на летнее время) пропускаются. Порядок генерации: по дням,
// внутри дня по правилам, внутри правила по смещению - время начала
// не убывает в пределах одного правила и дня.
func Generate(in Input) ([]Slot, error) {
	if !model.IsValidDuration(in.DurationMinutes) {
		return nil, fmt.Errorf("duration %d minutes: %w", in.DurationMinutes, model.ErrInvalidRequest)
	}
	if !in.To.After(in.From) {
		return nil, fmt.Errorf("empty date range: %w", model.ErrInvalidRequest)
	}
	if in.To.Sub(in.From) > MaxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("date range exceeds %d days: %w", MaxRangeDays, model.ErrInvalidRequest)
	}

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	// Границы диапазона в локальных календарных днях преподавателя
	localFrom := in.From.In(loc)
	localTo := in.To.In(loc)
	day := time.Date(localFrom.Year(), localFrom.Month(), localFrom.Day(), 0, 0, 0, 0, loc)
	lastDay := time.Date(localTo.Year(), localTo.Month(), localTo.Day(), 0, 0, 0, 0, loc)

	var slots []Slot
	seen := make(map[int64]struct{}) // пересекающиеся правила могут дать одинаковых кандидатов
	for ; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		for _, rule := range in.Rules {
			if !rule.IsActive || rule.Weekday != int(day.Weekday()) || rule.SlotMinutes != in.DurationMinutes {
				continue
			}

			for offset := rule.StartMinutes; offset+in.DurationMinutes <= rule.EndMinutes; offset += in.DurationMinutes {
				start, ok := timeutil.FromWallClock(day.Year(), day.Month(), day.Day(), offset, loc)
				if !ok {
					// локальное время не существует, кандидат пропускается
					continue
				}

				startUTC := start.UTC()
				endUTC := startUTC.Add(time.Duration(in.DurationMinutes) * time.Minute)

				if startUTC.Before(in.From) || endUTC.After(in.To) {
					continue
				}
				if startUTC.Before(in.Now) {
					continue
				}
				if blocked(startUTC, endUTC, in.Blocks) {
					continue
				}
				if timeutil.OverlapsAny(startUTC, endUTC, in.Busy) {
					continue
				}
				if _, dup := seen[startUTC.Unix()]; dup {
					continue
				}

				seen[startUTC.Unix()] = struct{}{}
				slots = append(slots, Slot{Start: startUTC, End: endUTC})
				if len(slots) >= MaxSlots {
					return slots, nil
				}
			}
		}
	}

	return slots, nil
}

func blocked(start, end time.Time, blocks []*model.AvailabilityBlock) bool {
	for _, b := range blocks {
		if timeutil.Overlaps(start, end, b.StartsAt, b.EndsAt) {
			return true
		}
	}
	return false
}

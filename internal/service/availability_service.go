package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadworks94/tutorhub/internal/availability"
	"github.com/muhammadworks94/tutorhub/internal/cache"
	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository"
	"github.com/muhammadworks94/tutorhub/internal/timeutil"
)

// AvailabilityResult - результат запроса свободных слотов.
// NoTutor означает что у занятия ещё нет преподавателя: это явный
// результат, а не ошибка.
type AvailabilityResult struct {
	Slots   []availability.Slot `json:"slots"`
	NoTutor bool                `json:"no_tutor"`
}

// AvailabilityService собирает входные данные генератора слотов и
// кеширует результаты. Кеш сугубо рекомендательный: авторитетная
// проверка конфликтов выполняется при фиксации занятия.
type AvailabilityService struct {
	userRepo   *repository.UserRepository
	availRepo  *repository.AvailabilityRepository
	lessonRepo *repository.LessonRepository
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

func NewAvailabilityService(
	userRepo *repository.UserRepository,
	availRepo *repository.AvailabilityRepository,
	lessonRepo *repository.LessonRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		userRepo:   userRepo,
		availRepo:  availRepo,
		lessonRepo: lessonRepo,
		cache:      c,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// GetAvailability возвращает свободные слоты преподавателя в [from, to),
// свободные и для студента (его собственные занятия тоже учитываются)
func (s *AvailabilityService) GetAvailability(ctx context.Context, tutorID, studentID int64, from, to time.Time, durationMinutes int) ([]availability.Slot, error) {
	key := fmt.Sprintf("slots:t%d:s%d:%d:%d:%d", tutorID, studentID, from.Unix(), to.Unix(), durationMinutes)
	if raw, ok := s.cache.Get(key); ok {
		var cached []availability.Slot
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	tutor, err := s.userRepo.GetByID(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	if tutor == nil {
		return nil, fmt.Errorf("tutor %d: %w", tutorID, model.ErrNotFound)
	}

	loc, ok := timeutil.ResolveLocation(tutor.TimeZone)
	if !ok && tutor.TimeZone != "" {
		// Деградация до UTC: пригодный результат лучше отказа
		s.logger.Warn("Failed to resolve tutor timezone, falling back to UTC",
			zap.Int64("tutor_id", tutorID),
			zap.String("time_zone", tutor.TimeZone),
		)
	}

	rules, err := s.availRepo.GetActiveRulesByTutorID(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	blocks, err := s.availRepo.GetBlocksBetween(ctx, tutorID, from, to)
	if err != nil {
		return nil, err
	}

	busy, err := s.busyIntervals(ctx, tutorID, studentID, from, to)
	if err != nil {
		return nil, err
	}

	slots, err := availability.Generate(availability.Input{
		From:            from,
		To:              to,
		DurationMinutes: durationMinutes,
		Now:             time.Now().UTC(),
		Location:        loc,
		Rules:           rules,
		Blocks:          blocks,
		Busy:            busy,
	})
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(slots); err == nil {
		s.cache.Set(key, raw, s.cacheTTL)
	}

	return slots, nil
}

// GetAvailabilityForLesson возвращает слоты для конкретной заявки на занятие
func (s *AvailabilityService) GetAvailabilityForLesson(ctx context.Context, lessonID int64, from, to time.Time) (*AvailabilityResult, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %d: %w", lessonID, model.ErrNotFound)
	}

	if lesson.TutorID == nil {
		return &AvailabilityResult{NoTutor: true}, nil
	}

	slots, err := s.GetAvailability(ctx, *lesson.TutorID, lesson.StudentID, from, to, lesson.DurationMinutes)
	if err != nil {
		return nil, err
	}

	return &AvailabilityResult{Slots: slots}, nil
}

// busyIntervals собирает занятые интервалы преподавателя и студента
func (s *AvailabilityService) busyIntervals(ctx context.Context, tutorID, studentID int64, from, to time.Time) ([]timeutil.Interval, error) {
	var busy []timeutil.Interval

	for _, userID := range []int64{tutorID, studentID} {
		lessons, err := s.lessonRepo.GetCommitmentsBetween(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}
		for _, l := range lessons {
			if l.ScheduledStart != nil && l.ScheduledEnd != nil {
				busy = append(busy, timeutil.Interval{Start: *l.ScheduledStart, End: *l.ScheduledEnd})
			}
		}
	}

	return busy, nil
}

// InvalidateTutor сбрасывает кешированные слоты преподавателя.
// Вызывается после каждой фиксации или отмены занятия.
func (s *AvailabilityService) InvalidateTutor(tutorID int64) {
	s.cache.Invalidate(fmt.Sprintf("slots:t%d:", tutorID))
}

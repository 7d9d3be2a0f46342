package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadworks94/tutorhub/internal/cache"
	"github.com/muhammadworks94/tutorhub/internal/service"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	lessonService  *service.LessonService
	memCache       *cache.Memory
	reminderWindow time.Duration
	logger         *zap.Logger
	stopChan       chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(lessonService *service.LessonService, memCache *cache.Memory, reminderWindow time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		lessonService:  lessonService,
		memCache:       memCache,
		reminderWindow: reminderWindow,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runReminderTask(ctx)
	go s.runCacheEvictionTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runReminderTask периодически рассылает напоминания о скоро начинающихся занятиях
func (s *Scheduler) runReminderTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.sendReminders(ctx)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sendReminders(ctx)
		case <-s.stopChan:
			s.logger.Info("Reminder task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reminder task cancelled")
			return
		}
	}
}

func (s *Scheduler) sendReminders(ctx context.Context) {
	count, err := s.lessonService.EmitStartingSoonReminders(ctx, s.reminderWindow)
	if err != nil {
		s.logger.Error("Failed to emit lesson reminders", zap.Error(err))
		return
	}

	if count > 0 {
		s.logger.Info("Lesson reminders emitted", zap.Int("count", count))
	}
}

// runCacheEvictionTask периодически вычищает просроченные записи кеша
func (s *Scheduler) runCacheEvictionTask(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.memCache.EvictExpired(); removed > 0 {
				s.logger.Debug("Cache entries evicted", zap.Int("count", removed))
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/muhammadworks94/tutorhub/internal/config"
	"github.com/muhammadworks94/tutorhub/internal/events"
	"github.com/muhammadworks94/tutorhub/internal/lifecycle"
	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository"
)

var validate = validator.New()

// LessonService - оркестратор жизненного цикла занятия. Каждый переход
// выполняется в одной транзакции: блокировка строки занятия, проверка
// перехода, движение кредитов и запись в журнал изменений фиксируются
// вместе или откатываются вместе. События публикуются после коммита.
type LessonService struct {
	pool         *pgxpool.Pool
	lessonRepo   *repository.LessonRepository
	changeLog    *repository.ChangeLogRepository
	courseRepo   *repository.CourseRepository
	availRepo    *repository.AvailabilityRepository
	ledger       *LedgerService
	availability *AvailabilityService
	publisher    events.Publisher
	policy       config.Policy
	logger       *zap.Logger
}

func NewLessonService(
	pool *pgxpool.Pool,
	lessonRepo *repository.LessonRepository,
	changeLog *repository.ChangeLogRepository,
	courseRepo *repository.CourseRepository,
	availRepo *repository.AvailabilityRepository,
	ledger *LedgerService,
	availabilitySvc *AvailabilityService,
	publisher events.Publisher,
	policy config.Policy,
	logger *zap.Logger,
) *LessonService {
	return &LessonService{
		pool:         pool,
		lessonRepo:   lessonRepo,
		changeLog:    changeLog,
		courseRepo:   courseRepo,
		availRepo:    availRepo,
		ledger:       ledger,
		availability: availabilitySvc,
		publisher:    publisher,
		policy:       policy,
		logger:       logger,
	}
}

// RequestLessonInput - заявка студента на занятие
type RequestLessonInput struct {
	CourseID        int64       `validate:"required,gt=0"`
	StudentID       int64       `validate:"required,gt=0"`
	TutorID         *int64      `validate:"omitempty,gt=0"`
	RequestedFrom   time.Time   `validate:"required"`
	RequestedTo     time.Time   `validate:"required,gtfield=RequestedFrom"`
	Options         []time.Time `validate:"max=3"`
	DurationMinutes int         `validate:"required"`
}

// Request создаёт заявку на занятие в статусе pending.
// Кредиты на этом шаге не двигаются - резервирование происходит
// при одобрении заявки.
func (s *LessonService) Request(ctx context.Context, in RequestLessonInput) (*model.Lesson, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidRequest, err)
	}
	if !model.IsValidDuration(in.DurationMinutes) {
		return nil, fmt.Errorf("duration %d minutes: %w", in.DurationMinutes, model.ErrInvalidRequest)
	}
	now := time.Now().UTC()
	if !in.RequestedTo.After(now) {
		return nil, fmt.Errorf("requested window is in the past: %w", model.ErrInvalidRequest)
	}
	for _, opt := range in.Options {
		if !opt.After(now) {
			return nil, fmt.Errorf("option %s is in the past: %w", opt.Format(time.RFC3339), model.ErrInvalidRequest)
		}
	}

	enrollment, err := s.courseRepo.GetEnrollment(ctx, in.StudentID, in.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if enrollment == nil || !enrollment.IsApproved() {
		return nil, fmt.Errorf("student %d is not enrolled in course %d: %w", in.StudentID, in.CourseID, model.ErrInvalidRequest)
	}

	lesson := &model.Lesson{
		CourseID:        in.CourseID,
		StudentID:       in.StudentID,
		TutorID:         in.TutorID,
		RequestedFrom:   in.RequestedFrom.UTC(),
		RequestedTo:     in.RequestedTo.UTC(),
		DurationMinutes: in.DurationMinutes,
		Status:          lifecycle.StatusPending,
	}
	setOptions(lesson, in.Options)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.lessonRepo.WithTx(tx).Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}

	err = s.changeLog.WithTx(tx).Append(ctx, &model.LessonChangeLog{
		LessonID: lesson.ID,
		ActorID:  in.StudentID,
		Action:   model.ChangeActionRequested,
	})
	if err != nil {
		return nil, fmt.Errorf("append change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Lesson requested",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("student_id", in.StudentID),
		zap.Int64("course_id", in.CourseID),
	)

	return lesson, nil
}

// Decide одобряет заявку: резервирует кредиты курса и назначает занятие
// на конкретное время. Нехватка кредитов откатывает всё, заявка остаётся
// в статусе pending.
func (s *LessonService) Decide(ctx context.Context, lessonID, adminID, tutorID int64, start time.Time) (*model.Lesson, error) {
	start = start.UTC()
	now := time.Now().UTC()
	if !start.After(now) {
		return nil, fmt.Errorf("start %s is in the past: %w", start.Format(time.RFC3339), model.ErrInvalidRequest)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(lesson, lifecycle.StatusScheduled); err != nil {
		return nil, err
	}
	if len(lesson.Options()) > 0 && !lesson.HasOption(start) {
		return nil, fmt.Errorf("start %s is not among proposed options: %w", start.Format(time.RFC3339), model.ErrInvalidRequest)
	}

	end := start.Add(time.Duration(lesson.DurationMinutes) * time.Minute)

	if err := s.checkSlotFree(ctx, tx, tutorID, lesson.StudentID, start, end, lesson.ID); err != nil {
		return nil, err
	}

	if _, err := s.ledger.reserveForLessonTx(ctx, tx, lesson.StudentID, lesson.CourseID, lesson.ID, s.policy.CreditsPerLesson); err != nil {
		return nil, fmt.Errorf("reserve credits: %w", err)
	}

	lesson.Status = lifecycle.StatusScheduled
	lesson.TutorID = &tutorID
	lesson.ScheduledStart = &start
	lesson.ScheduledEnd = &end

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	err = s.changeLog.WithTx(tx).Append(ctx, &model.LessonChangeLog{
		LessonID: lesson.ID,
		ActorID:  adminID,
		Action:   model.ChangeActionScheduled,
		NewStart: &start,
		NewEnd:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("append change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.availability.InvalidateTutor(tutorID)
	s.emitLessonEvent(events.SubjectLessonScheduled, lesson)

	s.logger.Info("Lesson scheduled",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("tutor_id", tutorID),
		zap.Time("start", start),
	)

	return lesson, nil
}

// Reject отклоняет заявку. Кредиты не двигаются - на pending ничего
// не зарезервировано.
func (s *LessonService) Reject(ctx context.Context, lessonID, adminID int64, note string) (*model.Lesson, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(lesson, lifecycle.StatusRejected); err != nil {
		return nil, err
	}

	lesson.Status = lifecycle.StatusRejected

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	err = s.changeLog.WithTx(tx).Append(ctx, &model.LessonChangeLog{
		LessonID: lesson.ID,
		ActorID:  adminID,
		Action:   model.ChangeActionRejected,
		Note:     note,
	})
	if err != nil {
		return nil, fmt.Errorf("append change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Lesson rejected", zap.Int64("lesson_id", lesson.ID))
	return lesson, nil
}

// RequestReschedule переводит занятие в reschedule_requested с новым
// набором вариантов времени. Запрос меньше чем за AdminApprovalWindowHours
// до начала помечается как поздний - штраф спишется при одобрении.
func (s *LessonService) RequestReschedule(ctx context.Context, lessonID, actorID int64, options []time.Time) (*model.Lesson, error) {
	if len(options) == 0 || len(options) > 3 {
		return nil, fmt.Errorf("expected 1-3 reschedule options, got %d: %w", len(options), model.ErrInvalidRequest)
	}
	now := time.Now().UTC()
	for _, opt := range options {
		if !opt.After(now) {
			return nil, fmt.Errorf("option %s is in the past: %w", opt.Format(time.RFC3339), model.ErrInvalidRequest)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(lesson, lifecycle.StatusRescheduleRequested); err != nil {
		return nil, err
	}
	if rescheduleLimitReached(lesson.RescheduleCount, s.policy.MaxReschedulesPerLesson) {
		return nil, fmt.Errorf("lesson %d already rescheduled %d times: %w", lesson.ID, lesson.RescheduleCount, model.ErrRescheduleLimitExceeded)
	}

	oldStart, oldEnd := lesson.ScheduledStart, lesson.ScheduledEnd

	groupID := uuid.New()
	lesson.Status = lifecycle.StatusRescheduleRequested
	lesson.RescheduleGroupID = &groupID
	lesson.RescheduleRequestedAt = &now
	lesson.RescheduleRequestedBy = &actorID
	lesson.ReschedulePenalized = oldStart != nil && IsLate(*oldStart, now, s.policy.AdminApprovalWindowHours)
	setOptions(lesson, options)

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	err = s.changeLog.WithTx(tx).Append(ctx, &model.LessonChangeLog{
		LessonID: lesson.ID,
		ActorID:  actorID,
		Action:   model.ChangeActionRescheduleRequested,
		OldStart: oldStart,
		OldEnd:   oldEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("append change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Reschedule requested",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("actor_id", actorID),
		zap.Bool("late", lesson.ReschedulePenalized),
	)

	return lesson, nil
}

// ApproveReschedule одобряет перенос на один из предложенных вариантов.
// Поздний запрос списывает штраф из кошелька студента, ограниченный
// его остатком.
func (s *LessonService) ApproveReschedule(ctx context.Context, lessonID, adminID int64, newStart time.Time) (*model.Lesson, error) {
	newStart = newStart.UTC()
	now := time.Now().UTC()
	if !newStart.After(now) {
		return nil, fmt.Errorf("start %s is in the past: %w", newStart.Format(time.RFC3339), model.ErrInvalidRequest)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(lesson, lifecycle.StatusRescheduled); err != nil {
		return nil, err
	}
	if rescheduleLimitReached(lesson.RescheduleCount, s.policy.MaxReschedulesPerLesson) {
		return nil, fmt.Errorf("lesson %d already rescheduled %d times: %w", lesson.ID, lesson.RescheduleCount, model.ErrRescheduleLimitExceeded)
	}
	if !lesson.HasOption(newStart) {
		return nil, fmt.Errorf("start %s is not among proposed options: %w", newStart.Format(time.RFC3339), model.ErrInvalidRequest)
	}
	if lesson.TutorID == nil {
		return nil, fmt.Errorf("lesson %d has no tutor: %w", lesson.ID, model.ErrInvalidRequest)
	}

	newEnd := newStart.Add(time.Duration(lesson.DurationMinutes) * time.Minute)

	if err := s.checkSlotFree(ctx, tx, *lesson.TutorID, lesson.StudentID, newStart, newEnd, lesson.ID); err != nil {
		return nil, err
	}

	penalized := 0
	if lesson.ReschedulePenalized && lesson.RescheduleRequestedBy != nil && *lesson.RescheduleRequestedBy == lesson.StudentID {
		penalized, err = s.ledger.penalizeWalletTx(ctx, tx, lesson.StudentID, s.policy.LateReschedulePenaltyCredits,
			"late reschedule penalty", &model.TxReference{Type: "lesson", ID: lesson.ID})
		if err != nil {
			return nil, fmt.Errorf("apply penalty: %w", err)
		}
	}

	oldStart, oldEnd := lesson.ScheduledStart, lesson.ScheduledEnd

	lesson.Status = lifecycle.StatusRescheduled
	lesson.ScheduledStart = &newStart
	lesson.ScheduledEnd = &newEnd
	lesson.RescheduleCount++
	lesson.ReschedulePenalized = false
	lesson.ReminderSentAt = nil // новое время - новое напоминание

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	err = s.changeLog.WithTx(tx).Append(ctx, &model.LessonChangeLog{
		LessonID: lesson.ID,
		ActorID:  adminID,
		Action:   model.ChangeActionRescheduled,
		OldStart: oldStart,
		OldEnd:   oldEnd,
		NewStart: &newStart,
		NewEnd:   &newEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("append change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.availability.InvalidateTutor(*lesson.TutorID)
	s.emitLessonEvent(events.SubjectLessonRescheduled, lesson)
	if penalized > 0 {
		wallet, werr := s.ledger.GetWalletBalance(ctx, lesson.StudentID)
		if werr == nil {
			s.ledger.emitCreditsChanged(lesson.StudentID, -penalized, wallet.RemainingCredits, "late reschedule penalty")
		}
	}

	s.logger.Info("Lesson rescheduled",
		zap.Int64("lesson_id", lesson.ID),
		zap.Time("new_start", newStart),
		zap.Int("reschedule_count", lesson.RescheduleCount),
		zap.Int("penalty", penalized),
	)

	return lesson, nil
}

// RequestCancellation переводит занятие в cancellation_requested.
// Сама отмена и возврат кредитов происходят в Cancel.
func (s *LessonService) RequestCancellation(ctx context.Context, lessonID, actorID int64) (*model.Lesson, error) {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(lesson, lifecycle.StatusCancellationRequested); err != nil {
		return nil, err
	}

	lesson.Status = lifecycle.StatusCancellationRequested
	lesson.CancellationRequested = true
	lesson.CancellationRequestedAt = &now

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	err = s.changeLog.WithTx(tx).Append(ctx, &model.LessonChangeLog{
		LessonID: lesson.ID,
		ActorID:  actorID,
		Action:   model.ChangeActionCancellationRequested,
		OldStart: lesson.ScheduledStart,
		OldEnd:   lesson.ScheduledEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("append change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Cancellation requested",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("actor_id", actorID),
	)

	return lesson, nil
}

// Cancel отменяет занятие. Заблаговременная отмена возвращает резерв
// полностью, поздняя - частично и со штрафом из кошелька. Позднесть
// оценивается на момент подачи запроса на отмену, если он был, иначе
// на текущий момент.
func (s *LessonService) Cancel(ctx context.Context, lessonID, actorID int64, note string) (*model.Lesson, error) {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(lesson, lifecycle.StatusCancelled); err != nil {
		return nil, err
	}

	late := false
	if lesson.ScheduledStart != nil {
		at := now
		if lesson.CancellationRequestedAt != nil {
			at = *lesson.CancellationRequestedAt
		}
		late = IsLate(*lesson.ScheduledStart, at, s.policy.AdminApprovalWindowHours)
	}

	refunded := 0
	if lesson.ScheduledStart != nil {
		percent := cancellationRefundPercent(late, s.policy.LateCancellationRefundPercent)
		refunded, err = s.ledger.refundForLessonTx(ctx, tx, lesson.StudentID, lesson.CourseID, lesson.ID,
			s.policy.CreditsPerLesson, percent, "lesson cancelled")
		if err != nil {
			return nil, fmt.Errorf("refund credits: %w", err)
		}
	}

	penalized := 0
	if late {
		penalized, err = s.ledger.penalizeWalletTx(ctx, tx, lesson.StudentID, s.policy.LateCancellationPenaltyCredits,
			"late cancellation penalty", &model.TxReference{Type: "lesson", ID: lesson.ID})
		if err != nil {
			return nil, fmt.Errorf("apply penalty: %w", err)
		}
	}

	lesson.Status = lifecycle.StatusCancelled

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	err = s.changeLog.WithTx(tx).Append(ctx, &model.LessonChangeLog{
		LessonID: lesson.ID,
		ActorID:  actorID,
		Action:   model.ChangeActionCancelled,
		OldStart: lesson.ScheduledStart,
		OldEnd:   lesson.ScheduledEnd,
		Note:     note,
	})
	if err != nil {
		return nil, fmt.Errorf("append change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if lesson.TutorID != nil {
		s.availability.InvalidateTutor(*lesson.TutorID)
	}
	s.emitLessonEvent(events.SubjectLessonCancelled, lesson)

	s.logger.Info("Lesson cancelled",
		zap.Int64("lesson_id", lesson.ID),
		zap.Bool("late", late),
		zap.Int("refunded", refunded),
		zap.Int("penalty", penalized),
	)

	return lesson, nil
}

// Complete завершает занятие и начисляет кредиты преподавателю.
// Повторный вызов по уже завершённому занятию - no-op.
func (s *LessonService) Complete(ctx context.Context, lessonID, actorID int64) (*model.Lesson, error) {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Status == lifecycle.StatusCompleted {
		return lesson, nil
	}
	if err := s.checkTransition(lesson, lifecycle.StatusCompleted); err != nil {
		return nil, err
	}

	if lesson.TutorID != nil {
		err = s.ledger.accrueEarningTx(ctx, tx, *lesson.TutorID, &lesson.ID,
			s.policy.TutorEarningPerLessonCredits, "lesson completed")
		if err != nil {
			return nil, fmt.Errorf("accrue earning: %w", err)
		}
	}

	lesson.Status = lifecycle.StatusCompleted
	if lesson.SessionEndedAt == nil {
		lesson.SessionEndedAt = &now
	}

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	err = s.changeLog.WithTx(tx).Append(ctx, &model.LessonChangeLog{
		LessonID: lesson.ID,
		ActorID:  actorID,
		Action:   model.ChangeActionCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("append change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.emitLessonEvent(events.SubjectLessonCompleted, lesson)
	if lesson.TutorID != nil && s.policy.TutorEarningPerLessonCredits > 0 {
		s.emitEarningEvent(*lesson.TutorID, lesson.ID, s.policy.TutorEarningPerLessonCredits)
	}

	s.logger.Info("Lesson completed", zap.Int64("lesson_id", lesson.ID))
	return lesson, nil
}

// MarkNoShow помечает занятие как несостоявшееся. Возврат по курсовому
// леджеру выполняется по настроенному проценту, обычно нулевому.
func (s *LessonService) MarkNoShow(ctx context.Context, lessonID, actorID int64) (*model.Lesson, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(lesson, lifecycle.StatusNoShow); err != nil {
		return nil, err
	}
	if !lesson.NoOneAttended() {
		return nil, fmt.Errorf("lesson %d has recorded attendance: %w", lessonID, model.ErrInvalidRequest)
	}

	refunded := 0
	if lesson.ScheduledStart != nil && s.policy.NoShowRefundPercent > 0 {
		refunded, err = s.ledger.refundForLessonTx(ctx, tx, lesson.StudentID, lesson.CourseID, lesson.ID,
			s.policy.CreditsPerLesson, s.policy.NoShowRefundPercent, "lesson no-show")
		if err != nil {
			return nil, fmt.Errorf("refund credits: %w", err)
		}
	}

	lesson.Status = lifecycle.StatusNoShow

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	err = s.changeLog.WithTx(tx).Append(ctx, &model.LessonChangeLog{
		LessonID: lesson.ID,
		ActorID:  actorID,
		Action:   model.ChangeActionNoShow,
		OldStart: lesson.ScheduledStart,
		OldEnd:   lesson.ScheduledEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("append change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.emitLessonEvent(events.SubjectLessonNoShow, lesson)

	s.logger.Info("Lesson marked as no-show",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int("refunded", refunded),
	)

	return lesson, nil
}

// RecordAttendance отмечает присутствие стороны занятия.
// Участник определяется по userID.
func (s *LessonService) RecordAttendance(ctx context.Context, lessonID, userID int64, attended bool) (*model.Lesson, error) {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}

	switch {
	case lesson.TutorID != nil && *lesson.TutorID == userID:
		lesson.TutorAttended = attended
	case lesson.StudentID == userID:
		lesson.StudentAttended = attended
	default:
		return nil, fmt.Errorf("user %d is not a participant of lesson %d: %w", userID, lessonID, model.ErrInvalidRequest)
	}

	if attended && lesson.SessionStartedAt == nil {
		lesson.SessionStartedAt = &now
	}

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return lesson, nil
}

// AttachMeeting прикрепляет метаданные видеовстречи к занятию
func (s *LessonService) AttachMeeting(ctx context.Context, lessonID int64, meetingID, joinURL string) (*model.Lesson, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lesson, err := s.lockLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Status.IsTerminal() {
		return nil, fmt.Errorf("lesson %d is %s: %w", lessonID, lesson.Status, model.ErrInvalidTransition)
	}

	lesson.MeetingID = meetingID
	lesson.MeetingJoinURL = joinURL

	if err := s.lessonRepo.WithTx(tx).Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return lesson, nil
}

// EmitStartingSoonReminders публикует события о скоро начинающихся
// занятиях. Каждое занятие напоминается один раз - метка reminder_sent_at
// сбрасывается только при переносе.
func (s *LessonService) EmitStartingSoonReminders(ctx context.Context, window time.Duration) (int, error) {
	now := time.Now().UTC()

	lessons, err := s.lessonRepo.GetStartingBetween(ctx, now, now.Add(window))
	if err != nil {
		return 0, fmt.Errorf("get starting lessons: %w", err)
	}

	emitted := 0
	for _, lesson := range lessons {
		s.emitLessonEvent(events.SubjectLessonStartingSoon, lesson)

		if err := s.lessonRepo.MarkReminderSent(ctx, lesson.ID); err != nil {
			s.logger.Error("Failed to mark reminder sent",
				zap.Error(err),
				zap.Int64("lesson_id", lesson.ID),
			)
			continue
		}
		emitted++
	}

	return emitted, nil
}

// ArchiveLesson скрывает завершённое занятие из выборок, помечая его
// удалённым. Физическое удаление не используется, журнал изменений
// остаётся на месте. Архивировать можно только терминальные занятия.
func (s *LessonService) ArchiveLesson(ctx context.Context, lessonID int64) error {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return fmt.Errorf("lesson %d: %w", lessonID, model.ErrNotFound)
	}
	if !lesson.Status.IsTerminal() {
		return fmt.Errorf("lesson %d is %s: %w", lessonID, lesson.Status, model.ErrInvalidRequest)
	}

	if err := s.lessonRepo.SoftDelete(ctx, lessonID); err != nil {
		return err
	}

	s.logger.Info("Lesson archived", zap.Int64("lesson_id", lessonID))
	return nil
}

// GetLesson возвращает занятие по идентификатору
func (s *LessonService) GetLesson(ctx context.Context, lessonID int64) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %d: %w", lessonID, model.ErrNotFound)
	}
	return lesson, nil
}

// GetChangeLog возвращает историю изменений занятия
func (s *LessonService) GetChangeLog(ctx context.Context, lessonID int64) ([]*model.LessonChangeLog, error) {
	return s.changeLog.GetByLessonID(ctx, lessonID)
}

// GetStudentLessons возвращает занятия студента
func (s *LessonService) GetStudentLessons(ctx context.Context, studentID int64) ([]*model.Lesson, error) {
	return s.lessonRepo.GetByStudentID(ctx, studentID)
}

// checkSlotFree - авторитетная проверка занятости перед фиксацией времени.
// Advisory-блокировки по обоим участникам сериализуют параллельные
// назначения с общей стороной, после чего проверяются занятия и блоки
// недоступности преподавателя в той же транзакции.
func (s *LessonService) checkSlotFree(ctx context.Context, tx pgx.Tx, tutorID, studentID int64, start, end time.Time, excludeLessonID int64) error {
	lessonRepo := s.lessonRepo.WithTx(tx)

	if err := lessonRepo.LockParties(ctx, tutorID, studentID); err != nil {
		return err
	}

	conflict, err := lessonRepo.HasConflict(ctx, tutorID, studentID, start, end, excludeLessonID)
	if err != nil {
		return fmt.Errorf("check conflict: %w", err)
	}
	if conflict {
		return fmt.Errorf("slot %s: %w", start.Format(time.RFC3339), model.ErrSlotConflict)
	}

	// GetBlocksBetween возвращает только пересекающие [start, end) блоки
	blocks, err := s.availRepo.WithTx(tx).GetBlocksBetween(ctx, tutorID, start, end)
	if err != nil {
		return fmt.Errorf("get availability blocks: %w", err)
	}
	if len(blocks) > 0 {
		return fmt.Errorf("slot %s is inside a blocked interval: %w", start.Format(time.RFC3339), model.ErrSlotConflict)
	}

	return nil
}

func (s *LessonService) lockLesson(ctx context.Context, tx pgx.Tx, lessonID int64) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.WithTx(tx).GetByIDForUpdate(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %d: %w", lessonID, model.ErrNotFound)
	}
	return lesson, nil
}

func (s *LessonService) checkTransition(lesson *model.Lesson, to lifecycle.Status) error {
	if !lifecycle.CanTransition(lesson.Status, to) {
		return fmt.Errorf("lesson %d: %s -> %s: %w", lesson.ID, lesson.Status, to, model.ErrInvalidTransition)
	}
	return nil
}

func setOptions(lesson *model.Lesson, options []time.Time) {
	lesson.Option1, lesson.Option2, lesson.Option3 = nil, nil, nil
	targets := []**time.Time{&lesson.Option1, &lesson.Option2, &lesson.Option3}
	for i, opt := range options {
		if i >= len(targets) {
			break
		}
		utc := opt.UTC()
		*targets[i] = &utc
	}
}

func (s *LessonService) emitLessonEvent(subject string, lesson *model.Lesson) {
	event := events.LessonEvent{
		EventID:    uuid.New(),
		EventType:  subject,
		LessonID:   lesson.ID,
		CourseID:   lesson.CourseID,
		StudentID:  lesson.StudentID,
		TutorID:    lesson.TutorID,
		StartAt:    lesson.ScheduledStart,
		EndAt:      lesson.ScheduledEnd,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(subject, event); err != nil {
		s.logger.Warn("Failed to publish lesson event",
			zap.Error(err),
			zap.String("subject", subject),
			zap.Int64("lesson_id", lesson.ID),
		)
	}
}

func (s *LessonService) emitEarningEvent(tutorID, lessonID int64, credits int) {
	event := events.EarningEvent{
		EventID:    uuid.New(),
		EventType:  events.SubjectEarningAccrued,
		TutorID:    tutorID,
		LessonID:   &lessonID,
		Credits:    credits,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(events.SubjectEarningAccrued, event); err != nil {
		s.logger.Warn("Failed to publish earning event",
			zap.Error(err),
			zap.Int64("tutor_id", tutorID),
		)
	}
}

package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository"
)

// CourseService управляет записью студентов на курсы.
// Одобрение записи и выделение кредитов происходят в одной транзакции.
type CourseService struct {
	pool       *pgxpool.Pool
	courseRepo *repository.CourseRepository
	ledger     *LedgerService
	logger     *zap.Logger
}

func NewCourseService(
	pool *pgxpool.Pool,
	courseRepo *repository.CourseRepository,
	ledger *LedgerService,
	logger *zap.Logger,
) *CourseService {
	return &CourseService{
		pool:       pool,
		courseRepo: courseRepo,
		ledger:     ledger,
		logger:     logger,
	}
}

// Enroll создаёт заявку студента на курс в статусе pending
func (s *CourseService) Enroll(ctx context.Context, studentID, courseID int64) (*model.Enrollment, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if course == nil || !course.IsActive {
		return nil, fmt.Errorf("course %d: %w", courseID, model.ErrNotFound)
	}

	existing, err := s.courseRepo.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("student %d already enrolled in course %d: %w", studentID, courseID, model.ErrInvalidRequest)
	}

	enrollment := &model.Enrollment{
		CourseID:  courseID,
		StudentID: studentID,
		Status:    model.EnrollmentStatusPending,
	}
	if err := s.courseRepo.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}

	s.logger.Info("Enrollment requested",
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
	)

	return enrollment, nil
}

// ApproveEnrollment одобряет заявку и выделяет кредиты из кошелька в
// курсовой леджер. Нехватка кредитов откатывает одобрение целиком.
func (s *CourseService) ApproveEnrollment(ctx context.Context, studentID, courseID int64, credits int) (*model.Enrollment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	courseRepo := s.courseRepo.WithTx(tx)

	enrollment, err := courseRepo.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if enrollment == nil {
		return nil, fmt.Errorf("enrollment for student %d course %d: %w", studentID, courseID, model.ErrNotFound)
	}
	if enrollment.Status != model.EnrollmentStatusPending {
		return nil, fmt.Errorf("enrollment %d is %s: %w", enrollment.ID, enrollment.Status, model.ErrInvalidRequest)
	}

	if err := courseRepo.UpdateEnrollmentStatus(ctx, enrollment.ID, model.EnrollmentStatusApproved); err != nil {
		return nil, fmt.Errorf("approve enrollment: %w", err)
	}

	wallet, _, err := s.ledger.allocateOnEnrollmentTx(ctx, tx, studentID, courseID, enrollment.ID, credits)
	if err != nil {
		return nil, fmt.Errorf("allocate credits: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	enrollment.Status = model.EnrollmentStatusApproved
	s.ledger.emitCreditsChanged(studentID, -credits, wallet.RemainingCredits, "course enrollment")

	s.logger.Info("Enrollment approved",
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
		zap.Int("credits", credits),
	)

	return enrollment, nil
}

// RejectEnrollment отклоняет заявку на курс
func (s *CourseService) RejectEnrollment(ctx context.Context, studentID, courseID int64) error {
	enrollment, err := s.courseRepo.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		return fmt.Errorf("get enrollment: %w", err)
	}
	if enrollment == nil {
		return fmt.Errorf("enrollment for student %d course %d: %w", studentID, courseID, model.ErrNotFound)
	}
	if enrollment.Status != model.EnrollmentStatusPending {
		return fmt.Errorf("enrollment %d is %s: %w", enrollment.ID, enrollment.Status, model.ErrInvalidRequest)
	}

	if err := s.courseRepo.UpdateEnrollmentStatus(ctx, enrollment.ID, model.EnrollmentStatusRejected); err != nil {
		return fmt.Errorf("reject enrollment: %w", err)
	}

	s.logger.Info("Enrollment rejected", zap.Int64("enrollment_id", enrollment.ID))
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository/base"
)

type CourseRepository struct {
	db base.Querier
}

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{db: pool}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *CourseRepository) WithTx(tx pgx.Tx) *CourseRepository {
	return &CourseRepository{db: tx}
}

// GetByID получает курс по ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	query := `
		SELECT id, tutor_id, title, description, is_active, created_at
		FROM courses
		WHERE id = $1
	`

	var course model.Course
	err := r.db.QueryRow(ctx, query, id).Scan(
		&course.ID,
		&course.TutorID,
		&course.Title,
		&course.Description,
		&course.IsActive,
		&course.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course by id: %w", err)
	}

	return &course, nil
}

// GetEnrollment получает запись студента на курс
func (r *CourseRepository) GetEnrollment(ctx context.Context, studentID, courseID int64) (*model.Enrollment, error) {
	query := `
		SELECT id, course_id, student_id, status, created_at, updated_at
		FROM enrollments
		WHERE student_id = $1 AND course_id = $2
	`

	var e model.Enrollment
	err := r.db.QueryRow(ctx, query, studentID, courseID).Scan(
		&e.ID,
		&e.CourseID,
		&e.StudentID,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	return &e, nil
}

// CreateEnrollment создаёт заявку студента на курс
func (r *CourseRepository) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	query := `
		INSERT INTO enrollments (course_id, student_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, e.CourseID, e.StudentID, e.Status).
		Scan(&e.ID, &e.CreatedAt)

	if err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	return nil
}

// UpdateEnrollmentStatus обновляет статус записи на курс
func (r *CourseRepository) UpdateEnrollmentStatus(ctx context.Context, id int64, status string) error {
	query := `
		UPDATE enrollments
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("enrollment %d: %w", id, model.ErrNotFound)
	}

	return nil
}

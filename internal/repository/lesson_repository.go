package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository/base"
)

const lessonColumns = `
	id, course_id, student_id, tutor_id,
	requested_from, requested_to, option1, option2, option3, duration_minutes,
	status, scheduled_start, scheduled_end,
	reschedule_count, reschedule_group_id, reschedule_requested_at,
	reschedule_requested_by, reschedule_penalized,
	cancellation_requested, cancellation_requested_at,
	tutor_attended, student_attended, session_started_at, session_ended_at, reminder_sent_at,
	meeting_id, meeting_join_url,
	created_at, updated_at, deleted_at`

type LessonRepository struct {
	db base.Querier
}

func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{db: pool}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *LessonRepository) WithTx(tx pgx.Tx) *LessonRepository {
	return &LessonRepository{db: tx}
}

func scanLesson(row pgx.Row) (*model.Lesson, error) {
	var l model.Lesson
	err := row.Scan(
		&l.ID, &l.CourseID, &l.StudentID, &l.TutorID,
		&l.RequestedFrom, &l.RequestedTo, &l.Option1, &l.Option2, &l.Option3, &l.DurationMinutes,
		&l.Status, &l.ScheduledStart, &l.ScheduledEnd,
		&l.RescheduleCount, &l.RescheduleGroupID, &l.RescheduleRequestedAt,
		&l.RescheduleRequestedBy, &l.ReschedulePenalized,
		&l.CancellationRequested, &l.CancellationRequestedAt,
		&l.TutorAttended, &l.StudentAttended, &l.SessionStartedAt, &l.SessionEndedAt, &l.ReminderSentAt,
		&l.MeetingID, &l.MeetingJoinURL,
		&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create создаёт новую заявку на занятие
func (r *LessonRepository) Create(ctx context.Context, l *model.Lesson) error {
	query := `
		INSERT INTO lessons (
			course_id, student_id, tutor_id,
			requested_from, requested_to, option1, option2, option3,
			duration_minutes, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		l.CourseID,
		l.StudentID,
		l.TutorID,
		l.RequestedFrom,
		l.RequestedTo,
		l.Option1,
		l.Option2,
		l.Option3,
		l.DurationMinutes,
		l.Status,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}

	return nil
}

// GetByID получает занятие по ID
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 AND deleted_at IS NULL`

	l, err := scanLesson(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}

	return l, nil
}

// GetByIDForUpdate получает занятие с блокировкой строки до конца транзакции.
// Вызывается только внутри транзакции.
func (r *LessonRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	l, err := scanLesson(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson for update: %w", err)
	}

	return l, nil
}

// Update сохраняет изменяемое состояние занятия
func (r *LessonRepository) Update(ctx context.Context, l *model.Lesson) error {
	query := `
		UPDATE lessons
		SET tutor_id = $1,
		    status = $2,
		    scheduled_start = $3,
		    scheduled_end = $4,
		    option1 = $5,
		    option2 = $6,
		    option3 = $7,
		    reschedule_count = $8,
		    reschedule_group_id = $9,
		    reschedule_requested_at = $10,
		    reschedule_requested_by = $11,
		    reschedule_penalized = $12,
		    cancellation_requested = $13,
		    cancellation_requested_at = $14,
		    tutor_attended = $15,
		    student_attended = $16,
		    session_started_at = $17,
		    session_ended_at = $18,
		    reminder_sent_at = $19,
		    meeting_id = $20,
		    meeting_join_url = $21,
		    updated_at = now()
		WHERE id = $22 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(
		ctx, query,
		l.TutorID,
		l.Status,
		l.ScheduledStart,
		l.ScheduledEnd,
		l.Option1,
		l.Option2,
		l.Option3,
		l.RescheduleCount,
		l.RescheduleGroupID,
		l.RescheduleRequestedAt,
		l.RescheduleRequestedBy,
		l.ReschedulePenalized,
		l.CancellationRequested,
		l.CancellationRequestedAt,
		l.TutorAttended,
		l.StudentAttended,
		l.SessionStartedAt,
		l.SessionEndedAt,
		l.ReminderSentAt,
		l.MeetingID,
		l.MeetingJoinURL,
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lesson %d: %w", l.ID, model.ErrNotFound)
	}

	return nil
}

// GetCommitmentsBetween получает назначенные занятия пользователя
// (как студента или преподавателя), пересекающие интервал [from, to)
func (r *LessonRepository) GetCommitmentsBetween(ctx context.Context, userID int64, from, to time.Time) ([]*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + `
		FROM lessons
		WHERE (student_id = $1 OR tutor_id = $1)
		  AND status IN ('scheduled', 'rescheduled')
		  AND scheduled_end > $2 AND scheduled_start < $3
		  AND deleted_at IS NULL
		ORDER BY scheduled_start
	`

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get commitments: %w", err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}

	return lessons, nil
}

// LockParties сериализует назначение занятий по участникам: берёт
// транзакционные advisory-блокировки на обе стороны. Без этого два
// параллельных назначения разных занятий с общим участником не видят
// незакоммиченные смены статусов друг друга и оба проходят HasConflict.
// Блокировки берутся в возрастающем порядке идентификаторов.
func (r *LessonRepository) LockParties(ctx context.Context, a, b int64) error {
	first, second := partyLockOrder(a, b)

	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, first); err != nil {
		return fmt.Errorf("lock party %d: %w", first, err)
	}
	if second != first {
		if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, second); err != nil {
			return fmt.Errorf("lock party %d: %w", second, err)
		}
	}

	return nil
}

// partyLockOrder фиксирует порядок взятия блокировок, исключая взаимную
// блокировку встречных назначений
func partyLockOrder(a, b int64) (int64, int64) {
	if b < a {
		return b, a
	}
	return a, b
}

// HasConflict проверяет есть ли у преподавателя или студента назначенное
// занятие, пересекающее [start, end). Авторитетная проверка двойного
// бронирования: вызывается внутри той же транзакции, что и смена статуса,
// после LockParties по обоим участникам.
func (r *LessonRepository) HasConflict(ctx context.Context, tutorID, studentID int64, start, end time.Time, excludeLessonID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM lessons
			WHERE (student_id = $1 OR tutor_id = $2 OR student_id = $2 OR tutor_id = $1)
			  AND status IN ('scheduled', 'rescheduled')
			  AND scheduled_end > $3 AND scheduled_start < $4
			  AND id <> $5
			  AND deleted_at IS NULL
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, studentID, tutorID, start, end, excludeLessonID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lesson conflict: %w", err)
	}

	return exists, nil
}

// GetStartingBetween получает назначенные занятия, начинающиеся в [from, to),
// по которым ещё не отправлялось напоминание
func (r *LessonRepository) GetStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + `
		FROM lessons
		WHERE status IN ('scheduled', 'rescheduled')
		  AND scheduled_start >= $1 AND scheduled_start < $2
		  AND reminder_sent_at IS NULL
		  AND deleted_at IS NULL
		ORDER BY scheduled_start
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("get lessons starting between: %w", err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}

	return lessons, nil
}

// GetByStudentID получает занятия студента
func (r *LessonRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + `
		FROM lessons
		WHERE student_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get lessons by student: %w", err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}

	return lessons, nil
}

// MarkReminderSent отмечает что напоминание по занятию отправлено
func (r *LessonRepository) MarkReminderSent(ctx context.Context, id int64) error {
	query := `UPDATE lessons SET reminder_sent_at = now() WHERE id = $1 AND reminder_sent_at IS NULL`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}

	return nil
}

// SoftDelete помечает занятие удалённым. Физическое удаление не используется.
func (r *LessonRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE lessons SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lesson %d: %w", id, model.ErrNotFound)
	}

	return nil
}

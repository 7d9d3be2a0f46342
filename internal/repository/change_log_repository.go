package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository/base"
)

// ChangeLogRepository пишет журнал переходов занятий.
// Таблица append-only: методов обновления и удаления нет.
type ChangeLogRepository struct {
	db base.Querier
}

func NewChangeLogRepository(pool *pgxpool.Pool) *ChangeLogRepository {
	return &ChangeLogRepository{db: pool}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *ChangeLogRepository) WithTx(tx pgx.Tx) *ChangeLogRepository {
	return &ChangeLogRepository{db: tx}
}

// Append добавляет запись аудита
func (r *ChangeLogRepository) Append(ctx context.Context, entry *model.LessonChangeLog) error {
	query := `
		INSERT INTO lesson_change_logs (lesson_id, actor_id, action, old_start, old_end, new_start, new_end, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		entry.LessonID,
		entry.ActorID,
		entry.Action,
		entry.OldStart,
		entry.OldEnd,
		entry.NewStart,
		entry.NewEnd,
		entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("append change log: %w", err)
	}

	return nil
}

// GetByLessonID получает историю изменений занятия в хронологическом порядке
func (r *ChangeLogRepository) GetByLessonID(ctx context.Context, lessonID int64) ([]*model.LessonChangeLog, error) {
	query := `
		SELECT id, lesson_id, actor_id, action, old_start, old_end, new_start, new_end, note, created_at
		FROM lesson_change_logs
		WHERE lesson_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get change log: %w", err)
	}
	defer rows.Close()

	var entries []*model.LessonChangeLog
	for rows.Next() {
		var e model.LessonChangeLog
		err := rows.Scan(
			&e.ID,
			&e.LessonID,
			&e.ActorID,
			&e.Action,
			&e.OldStart,
			&e.OldEnd,
			&e.NewStart,
			&e.NewEnd,
			&e.Note,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan change log entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, nil
}

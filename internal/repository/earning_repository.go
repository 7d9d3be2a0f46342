package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository/base"
)

// EarningRepository пишет начисления преподавателям.
// Таблица append-only, баланса нет - итог считается суммой строк.
type EarningRepository struct {
	db base.Querier
}

func NewEarningRepository(pool *pgxpool.Pool) *EarningRepository {
	return &EarningRepository{db: pool}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *EarningRepository) WithTx(tx pgx.Tx) *EarningRepository {
	return &EarningRepository{db: tx}
}

// Insert добавляет начисление
func (r *EarningRepository) Insert(ctx context.Context, t *model.TutorEarningTransaction) error {
	query := `
		INSERT INTO tutor_earning_transactions (tutor_id, credits, lesson_id, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, t.TutorID, t.Credits, t.LessonID, t.Note).
		Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert earning transaction: %w", err)
	}

	return nil
}

// SumByTutorID возвращает сумму начислений преподавателя за всё время
func (r *EarningRepository) SumByTutorID(ctx context.Context, tutorID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(credits), 0)
		FROM tutor_earning_transactions
		WHERE tutor_id = $1
	`

	var sum int
	err := r.db.QueryRow(ctx, query, tutorID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum earnings: %w", err)
	}

	return sum, nil
}

// GetByTutorID получает начисления преподавателя от новых к старым
func (r *EarningRepository) GetByTutorID(ctx context.Context, tutorID int64, limit int) ([]*model.TutorEarningTransaction, error) {
	query := `
		SELECT id, tutor_id, credits, lesson_id, note, created_at
		FROM tutor_earning_transactions
		WHERE tutor_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, tutorID, limit)
	if err != nil {
		return nil, fmt.Errorf("get earnings: %w", err)
	}
	defer rows.Close()

	var txs []*model.TutorEarningTransaction
	for rows.Next() {
		var t model.TutorEarningTransaction
		err := rows.Scan(&t.ID, &t.TutorID, &t.Credits, &t.LessonID, &t.Note, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan earning transaction: %w", err)
		}
		txs = append(txs, &t)
	}

	return txs, nil
}

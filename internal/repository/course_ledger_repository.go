package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository/base"
)

type CourseLedgerRepository struct {
	db base.Querier
}

func NewCourseLedgerRepository(pool *pgxpool.Pool) *CourseLedgerRepository {
	return &CourseLedgerRepository{db: pool}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *CourseLedgerRepository) WithTx(tx pgx.Tx) *CourseLedgerRepository {
	return &CourseLedgerRepository{db: tx}
}

const courseLedgerColumns = `id, student_id, course_id, credits_allocated, credits_used, credits_remaining, created_at, updated_at`

func scanCourseLedger(row pgx.Row) (*model.CourseCreditLedger, error) {
	var l model.CourseCreditLedger
	err := row.Scan(
		&l.ID,
		&l.StudentID,
		&l.CourseID,
		&l.CreditsAllocated,
		&l.CreditsUsed,
		&l.CreditsRemaining,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Get получает курсовой леджер пары (студент, курс)
func (r *CourseLedgerRepository) Get(ctx context.Context, studentID, courseID int64) (*model.CourseCreditLedger, error) {
	query := `SELECT ` + courseLedgerColumns + ` FROM course_credit_ledgers WHERE student_id = $1 AND course_id = $2`

	l, err := scanCourseLedger(r.db.QueryRow(ctx, query, studentID, courseID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course ledger: %w", err)
	}

	return l, nil
}

// GetForUpdate получает курсовой леджер с блокировкой строки.
// Вызывается только внутри транзакции.
func (r *CourseLedgerRepository) GetForUpdate(ctx context.Context, studentID, courseID int64) (*model.CourseCreditLedger, error) {
	query := `SELECT ` + courseLedgerColumns + ` FROM course_credit_ledgers WHERE student_id = $1 AND course_id = $2 FOR UPDATE`

	l, err := scanCourseLedger(r.db.QueryRow(ctx, query, studentID, courseID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course ledger for update: %w", err)
	}

	return l, nil
}

// Create создаёт курсовой леджер
func (r *CourseLedgerRepository) Create(ctx context.Context, l *model.CourseCreditLedger) error {
	query := `
		INSERT INTO course_credit_ledgers (student_id, course_id, credits_allocated, credits_used, credits_remaining)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, course_id) DO UPDATE SET updated_at = now()
		RETURNING ` + courseLedgerColumns

	created, err := scanCourseLedger(r.db.QueryRow(
		ctx, query,
		l.StudentID,
		l.CourseID,
		l.CreditsAllocated,
		l.CreditsUsed,
		l.CreditsRemaining,
	))
	if err != nil {
		return fmt.Errorf("create course ledger: %w", err)
	}

	*l = *created
	return nil
}

// Save сохраняет баланс курсового леджера
func (r *CourseLedgerRepository) Save(ctx context.Context, l *model.CourseCreditLedger) error {
	query := `
		UPDATE course_credit_ledgers
		SET credits_allocated = $1, credits_used = $2, credits_remaining = $3, updated_at = now()
		WHERE id = $4
	`

	result, err := r.db.Exec(ctx, query, l.CreditsAllocated, l.CreditsUsed, l.CreditsRemaining, l.ID)
	if err != nil {
		return fmt.Errorf("save course ledger: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("course ledger %d: %w", l.ID, model.ErrNotFound)
	}

	return nil
}

// InsertTransaction добавляет запись журнала курсового леджера.
// Журнал append-only: методов обновления и удаления нет.
func (r *CourseLedgerRepository) InsertTransaction(ctx context.Context, t *model.CourseLedgerTransaction) error {
	query := `
		INSERT INTO course_ledger_transactions (student_id, course_id, amount, type, note, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		t.StudentID,
		t.CourseID,
		t.Amount,
		t.Type,
		t.Note,
		t.ReferenceID,
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert course ledger transaction: %w", err)
	}

	return nil
}

// GetTransactions получает журнал курсового леджера от новых к старым
func (r *CourseLedgerRepository) GetTransactions(ctx context.Context, studentID, courseID int64, limit int) ([]*model.CourseLedgerTransaction, error) {
	query := `
		SELECT id, student_id, course_id, amount, type, note, reference_id, created_at
		FROM course_ledger_transactions
		WHERE student_id = $1 AND course_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, studentID, courseID, limit)
	if err != nil {
		return nil, fmt.Errorf("get course ledger transactions: %w", err)
	}
	defer rows.Close()

	var txs []*model.CourseLedgerTransaction
	for rows.Next() {
		var t model.CourseLedgerTransaction
		err := rows.Scan(
			&t.ID,
			&t.StudentID,
			&t.CourseID,
			&t.Amount,
			&t.Type,
			&t.Note,
			&t.ReferenceID,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan course ledger transaction: %w", err)
		}
		txs = append(txs, &t)
	}

	return txs, nil
}

// SumTransactions суммирует журнал леджера со знаком.
// Используется проверкой согласованности.
func (r *CourseLedgerRepository) SumTransactions(ctx context.Context, studentID, courseID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM course_ledger_transactions
		WHERE student_id = $1 AND course_id = $2
	`

	var sum int
	err := r.db.QueryRow(ctx, query, studentID, courseID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum course ledger transactions: %w", err)
	}

	return sum, nil
}

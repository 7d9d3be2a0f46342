package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository/base"
)

type WalletRepository struct {
	db base.Querier
}

func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{db: pool}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *WalletRepository) WithTx(tx pgx.Tx) *WalletRepository {
	return &WalletRepository{db: tx}
}

const walletColumns = `id, user_id, total_credits, used_credits, remaining_credits, created_at, updated_at`

func scanWallet(row pgx.Row) (*model.CreditsBalance, error) {
	var b model.CreditsBalance
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.TotalCredits,
		&b.UsedCredits,
		&b.RemainingCredits,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByUserID получает кошелёк пользователя
func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*model.CreditsBalance, error) {
	query := `SELECT ` + walletColumns + ` FROM credits_balances WHERE user_id = $1`

	b, err := scanWallet(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	return b, nil
}

// GetByUserIDForUpdate получает кошелёк с блокировкой строки.
// Сериализует конкурентные операции над одним кошельком; операции над
// разными кошельками не мешают друг другу. Вызывается только в транзакции.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*model.CreditsBalance, error) {
	query := `SELECT ` + walletColumns + ` FROM credits_balances WHERE user_id = $1 FOR UPDATE`

	b, err := scanWallet(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}

	return b, nil
}

// Create создаёт кошелёк. Конкурентное создание разрешается через
// ON CONFLICT: выигравшая строка возвращается в любом случае.
func (r *WalletRepository) Create(ctx context.Context, b *model.CreditsBalance) error {
	query := `
		INSERT INTO credits_balances (user_id, total_credits, used_credits, remaining_credits)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING ` + walletColumns

	created, err := scanWallet(r.db.QueryRow(ctx, query, b.UserID, b.TotalCredits, b.UsedCredits, b.RemainingCredits))
	if err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}

	*b = *created
	return nil
}

// Save сохраняет баланс кошелька
func (r *WalletRepository) Save(ctx context.Context, b *model.CreditsBalance) error {
	query := `
		UPDATE credits_balances
		SET total_credits = $1, used_credits = $2, remaining_credits = $3, updated_at = now()
		WHERE id = $4
	`

	result, err := r.db.Exec(ctx, query, b.TotalCredits, b.UsedCredits, b.RemainingCredits, b.ID)
	if err != nil {
		return fmt.Errorf("save wallet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet %d: %w", b.ID, model.ErrNotFound)
	}

	return nil
}

// InsertTransaction добавляет запись журнала кошелька.
// Журнал append-only: методов обновления и удаления нет.
func (r *WalletRepository) InsertTransaction(ctx context.Context, t *model.CreditTransaction) error {
	query := `
		INSERT INTO credit_transactions (user_id, amount, type, reason, reference_type, reference_id, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		t.UserID,
		t.Amount,
		t.Type,
		t.Reason,
		t.ReferenceType,
		t.ReferenceID,
		t.BalanceAfter,
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert credit transaction: %w", err)
	}

	return nil
}

// GetTransactionsByUserID получает журнал кошелька от новых к старым
func (r *WalletRepository) GetTransactionsByUserID(ctx context.Context, userID int64, limit int) ([]*model.CreditTransaction, error) {
	query := `
		SELECT id, user_id, amount, type, reason, reference_type, reference_id, balance_after, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get credit transactions: %w", err)
	}
	defer rows.Close()

	var txs []*model.CreditTransaction
	for rows.Next() {
		var t model.CreditTransaction
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Amount,
			&t.Type,
			&t.Reason,
			&t.ReferenceType,
			&t.ReferenceID,
			&t.BalanceAfter,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan credit transaction: %w", err)
		}
		txs = append(txs, &t)
	}

	return txs, nil
}

// SumTransactions суммирует журнал кошелька: приходы и расходы раздельно.
// Используется бэкфиллом и проверкой согласованности баланса.
func (r *WalletRepository) SumTransactions(ctx context.Context, userID int64) (credits, debits int, err error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0),
			COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0)
		FROM credit_transactions
		WHERE user_id = $1
	`

	err = r.db.QueryRow(ctx, query, userID).Scan(&credits, &debits)
	if err != nil {
		return 0, 0, fmt.Errorf("sum credit transactions: %w", err)
	}

	return credits, debits, nil
}

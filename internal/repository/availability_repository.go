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

type AvailabilityRepository struct {
	db base.Querier
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{db: pool}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *AvailabilityRepository) WithTx(tx pgx.Tx) *AvailabilityRepository {
	return &AvailabilityRepository{db: tx}
}

// CreateRule создаёт правило недельной доступности
func (r *AvailabilityRepository) CreateRule(ctx context.Context, rule *model.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (group_id, tutor_id, weekday, start_minutes, end_minutes, slot_minutes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		rule.GroupID,
		rule.TutorID,
		rule.Weekday,
		rule.StartMinutes,
		rule.EndMinutes,
		rule.SlotMinutes,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create availability rule: %w", err)
	}

	return nil
}

// GetActiveRulesByTutorID получает активные правила преподавателя
func (r *AvailabilityRepository) GetActiveRulesByTutorID(ctx context.Context, tutorID int64) ([]*model.AvailabilityRule, error) {
	query := `
		SELECT id, group_id, tutor_id, weekday, start_minutes, end_minutes, slot_minutes, is_active, created_at, updated_at
		FROM availability_rules
		WHERE tutor_id = $1 AND is_active = true
		ORDER BY weekday, start_minutes
	`

	rows, err := r.db.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get active rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// GetRulesByGroupID получает все правила группы
func (r *AvailabilityRepository) GetRulesByGroupID(ctx context.Context, groupID string) ([]*model.AvailabilityRule, error) {
	query := `
		SELECT id, group_id, tutor_id, weekday, start_minutes, end_minutes, slot_minutes, is_active, created_at, updated_at
		FROM availability_rules
		WHERE group_id = $1
		ORDER BY weekday, start_minutes
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("get rules by group: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

func scanRules(rows pgx.Rows) ([]*model.AvailabilityRule, error) {
	var rules []*model.AvailabilityRule
	for rows.Next() {
		var rule model.AvailabilityRule
		err := rows.Scan(
			&rule.ID,
			&rule.GroupID,
			&rule.TutorID,
			&rule.Weekday,
			&rule.StartMinutes,
			&rule.EndMinutes,
			&rule.SlotMinutes,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan availability rule: %w", err)
		}
		rules = append(rules, &rule)
	}
	return rules, nil
}

// DeactivateRule выключает правило
func (r *AvailabilityRepository) DeactivateRule(ctx context.Context, tutorID, ruleID int64) error {
	query := `
		UPDATE availability_rules
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND tutor_id = $2
	`

	result, err := r.db.Exec(ctx, query, ruleID, tutorID)
	if err != nil {
		return fmt.Errorf("deactivate rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("rule %d: %w", ruleID, model.ErrNotFound)
	}

	return nil
}

// DeactivateRuleGroup выключает все правила группы
func (r *AvailabilityRepository) DeactivateRuleGroup(ctx context.Context, tutorID int64, groupID string) (int64, error) {
	query := `
		UPDATE availability_rules
		SET is_active = false, updated_at = now()
		WHERE group_id = $1 AND tutor_id = $2 AND is_active = true
	`

	result, err := r.db.Exec(ctx, query, groupID, tutorID)
	if err != nil {
		return 0, fmt.Errorf("deactivate rule group: %w", err)
	}

	return result.RowsAffected(), nil
}

// CreateBlock создаёт разовый интервал недоступности
func (r *AvailabilityRepository) CreateBlock(ctx context.Context, block *model.AvailabilityBlock) error {
	query := `
		INSERT INTO availability_blocks (tutor_id, starts_at, ends_at, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		block.TutorID,
		block.StartsAt,
		block.EndsAt,
		block.Reason,
	).Scan(&block.ID, &block.CreatedAt)

	if err != nil {
		return fmt.Errorf("create availability block: %w", err)
	}

	return nil
}

// GetBlocksBetween получает блоки преподавателя, пересекающие [from, to)
func (r *AvailabilityRepository) GetBlocksBetween(ctx context.Context, tutorID int64, from, to time.Time) ([]*model.AvailabilityBlock, error) {
	query := `
		SELECT id, tutor_id, starts_at, ends_at, reason, created_at
		FROM availability_blocks
		WHERE tutor_id = $1 AND ends_at > $2 AND starts_at < $3
		ORDER BY starts_at
	`

	rows, err := r.db.Query(ctx, query, tutorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get availability blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*model.AvailabilityBlock
	for rows.Next() {
		var b model.AvailabilityBlock
		err := rows.Scan(&b.ID, &b.TutorID, &b.StartsAt, &b.EndsAt, &b.Reason, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan availability block: %w", err)
		}
		blocks = append(blocks, &b)
	}

	return blocks, nil
}

// DeleteBlock удаляет блок недоступности
func (r *AvailabilityRepository) DeleteBlock(ctx context.Context, tutorID, blockID int64) error {
	query := `DELETE FROM availability_blocks WHERE id = $1 AND tutor_id = $2`

	result, err := r.db.Exec(ctx, query, blockID, tutorID)
	if err != nil {
		return fmt.Errorf("delete availability block: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("block %d: %w", blockID, model.ErrNotFound)
	}

	return nil
}

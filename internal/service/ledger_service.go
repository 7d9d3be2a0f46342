package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/muhammadworks94/tutorhub/internal/events"
	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository"
)

// LedgerService - единственный компонент, изменяющий кошельки и курсовые
// леджеры. Каждая операция - атомарный read-modify-write над конкретной
// строкой баланса под блокировкой FOR UPDATE, журнальная запись пишется
// в той же транзакции.
type LedgerService struct {
	pool         *pgxpool.Pool
	walletRepo   *repository.WalletRepository
	courseRepo   *repository.CourseLedgerRepository
	earningRepo  *repository.EarningRepository
	publisher    events.Publisher
	lowThreshold int
	logger       *zap.Logger
}

func NewLedgerService(
	pool *pgxpool.Pool,
	walletRepo *repository.WalletRepository,
	courseRepo *repository.CourseLedgerRepository,
	earningRepo *repository.EarningRepository,
	publisher events.Publisher,
	lowThreshold int,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		pool:         pool,
		walletRepo:   walletRepo,
		courseRepo:   courseRepo,
		earningRepo:  earningRepo,
		publisher:    publisher,
		lowThreshold: lowThreshold,
		logger:       logger,
	}
}

// ApplyWalletDelta применяет дельту к кошельку пользователя и пишет
// журнальную запись с зафиксированным BalanceAfter. Положительная дельта -
// пополнение, отрицательная - списание с проверкой остатка.
func (s *LedgerService) ApplyWalletDelta(ctx context.Context, userID int64, amount int, txType, reason string, ref *model.TxReference) (*model.CreditsBalance, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	wallet, err := s.applyWalletDeltaTx(ctx, tx, userID, amount, txType, reason, ref)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.emitCreditsChanged(userID, amount, wallet.RemainingCredits, reason)

	s.logger.Info("Wallet delta applied",
		zap.Int64("user_id", userID),
		zap.Int("amount", amount),
		zap.String("type", txType),
		zap.Int("remaining", wallet.RemainingCredits),
	)

	return wallet, nil
}

// applyWalletDeltaTx - вариант для вызова внутри внешней транзакции
func (s *LedgerService) applyWalletDeltaTx(ctx context.Context, tx pgx.Tx, userID int64, amount int, txType, reason string, ref *model.TxReference) (*model.CreditsBalance, error) {
	walletRepo := s.walletRepo.WithTx(tx)

	wallet, err := s.lockOrBackfillWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := wallet.Apply(amount); err != nil {
		return nil, err
	}

	if err := walletRepo.Save(ctx, wallet); err != nil {
		return nil, err
	}

	entry := &model.CreditTransaction{
		UserID:       userID,
		Amount:       amount,
		Type:         txType,
		Reason:       reason,
		BalanceAfter: wallet.RemainingCredits,
	}
	if ref != nil {
		entry.ReferenceType = &ref.Type
		entry.ReferenceID = &ref.ID
	}

	if err := walletRepo.InsertTransaction(ctx, entry); err != nil {
		return nil, err
	}

	return wallet, nil
}

// lockOrBackfillWallet получает кошелёк под блокировкой. Отсутствующий
// кошелёк создаётся здесь же: это явный бэкфилл - баланс восстанавливается
// суммированием существующих журнальных записей, а не нулями.
func (s *LedgerService) lockOrBackfillWallet(ctx context.Context, tx pgx.Tx, userID int64) (*model.CreditsBalance, error) {
	walletRepo := s.walletRepo.WithTx(tx)

	wallet, err := walletRepo.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	credits, debits, err := walletRepo.SumTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	wallet = &model.CreditsBalance{
		UserID:           userID,
		TotalCredits:     credits,
		UsedCredits:      debits,
		RemainingCredits: credits - debits,
	}

	if err := walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	if credits != 0 || debits != 0 {
		s.logger.Info("Wallet backfilled from transaction log",
			zap.Int64("user_id", userID),
			zap.Int("total", credits),
			zap.Int("used", debits),
		)
	}

	return wallet, nil
}

// AllocateOnEnrollment списывает кредиты из кошелька и выделяет их в
// курсовой леджер. Обе стороны операции в одной транзакции.
func (s *LedgerService) AllocateOnEnrollment(ctx context.Context, studentID, courseID, enrollmentID int64, credits int) (*model.CourseCreditLedger, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("allocate %d credits: %w", credits, model.ErrInvalidRequest)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	wallet, ledger, err := s.allocateOnEnrollmentTx(ctx, tx, studentID, courseID, enrollmentID, credits)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.emitCreditsChanged(studentID, -credits, wallet.RemainingCredits, "course enrollment")

	s.logger.Info("Credits allocated to course",
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
		zap.Int("credits", credits),
		zap.Int("course_remaining", ledger.CreditsRemaining),
	)

	return ledger, nil
}

// allocateOnEnrollmentTx - транзакционная часть выделения: списание из
// кошелька и зачисление в курсовой леджер под блокировками
func (s *LedgerService) allocateOnEnrollmentTx(ctx context.Context, tx pgx.Tx, studentID, courseID, enrollmentID int64, credits int) (*model.CreditsBalance, *model.CourseCreditLedger, error) {
	ref := &model.TxReference{Type: "enrollment", ID: enrollmentID}
	wallet, err := s.applyWalletDeltaTx(ctx, tx, studentID, -credits, model.CreditTxEnrollment, "course enrollment", ref)
	if err != nil {
		return nil, nil, err
	}

	courseRepo := s.courseRepo.WithTx(tx)

	ledger, err := courseRepo.GetForUpdate(ctx, studentID, courseID)
	if err != nil {
		return nil, nil, err
	}
	if ledger == nil {
		ledger = &model.CourseCreditLedger{StudentID: studentID, CourseID: courseID}
		if err := courseRepo.Create(ctx, ledger); err != nil {
			return nil, nil, err
		}
	}

	if err := ledger.Allocate(credits); err != nil {
		return nil, nil, err
	}
	if err := courseRepo.Save(ctx, ledger); err != nil {
		return nil, nil, err
	}

	err = courseRepo.InsertTransaction(ctx, &model.CourseLedgerTransaction{
		StudentID: studentID,
		CourseID:  courseID,
		Amount:    credits,
		Type:      model.CourseTxAllocated,
		Note:      "allocated on enrollment",
	})
	if err != nil {
		return nil, nil, err
	}

	return wallet, ledger, nil
}

// reserveForLessonTx резервирует кредиты курса под занятие.
// Вызывается оркестратором внутри транзакции смены статуса.
func (s *LedgerService) reserveForLessonTx(ctx context.Context, tx pgx.Tx, studentID, courseID, lessonID int64, credits int) (*model.CourseCreditLedger, error) {
	courseRepo := s.courseRepo.WithTx(tx)

	ledger, err := courseRepo.GetForUpdate(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("course ledger for student %d course %d: %w", studentID, courseID, model.ErrInsufficientCredits)
	}

	if err := ledger.Reserve(credits); err != nil {
		return nil, err
	}
	if err := courseRepo.Save(ctx, ledger); err != nil {
		return nil, err
	}

	err = courseRepo.InsertTransaction(ctx, &model.CourseLedgerTransaction{
		StudentID:   studentID,
		CourseID:    courseID,
		Amount:      -credits,
		Type:        model.CourseTxLessonReserved,
		Note:        "reserved for lesson",
		ReferenceID: &lessonID,
	})
	if err != nil {
		return nil, err
	}

	return ledger, nil
}

// refundForLessonTx возвращает в курсовой леджер долю зарезервированных
// кредитов. Процент округляется half-away-from-zero; нулевой возврат -
// no-op без журнальной записи.
func (s *LedgerService) refundForLessonTx(ctx context.Context, tx pgx.Tx, studentID, courseID, lessonID int64, credits, percent int, note string) (int, error) {
	refund := model.RefundAmount(credits, percent)
	if refund == 0 {
		return 0, nil
	}

	courseRepo := s.courseRepo.WithTx(tx)

	ledger, err := courseRepo.GetForUpdate(ctx, studentID, courseID)
	if err != nil {
		return 0, err
	}
	if ledger == nil {
		return 0, fmt.Errorf("course ledger for student %d course %d: %w", studentID, courseID, model.ErrNotFound)
	}

	ledger.Refund(refund)
	if err := courseRepo.Save(ctx, ledger); err != nil {
		return 0, err
	}

	err = courseRepo.InsertTransaction(ctx, &model.CourseLedgerTransaction{
		StudentID:   studentID,
		CourseID:    courseID,
		Amount:      refund,
		Type:        model.CourseTxRefund,
		Note:        note,
		ReferenceID: &lessonID,
	})
	if err != nil {
		return 0, err
	}

	return refund, nil
}

// accrueEarningTx начисляет кредиты преподавателю. credits <= 0 - no-op.
func (s *LedgerService) accrueEarningTx(ctx context.Context, tx pgx.Tx, tutorID int64, lessonID *int64, credits int, note string) error {
	if credits <= 0 {
		return nil
	}

	return s.earningRepo.WithTx(tx).Insert(ctx, &model.TutorEarningTransaction{
		TutorID:  tutorID,
		Credits:  credits,
		LessonID: lessonID,
		Note:     note,
	})
}

// penalizeWalletTx списывает штраф из кошелька студента, ограничивая его
// доступным остатком: нехватка кредитов на штраф не должна блокировать сам
// переход занятия. Возвращает фактически списанную сумму.
func (s *LedgerService) penalizeWalletTx(ctx context.Context, tx pgx.Tx, userID int64, credits int, reason string, ref *model.TxReference) (int, error) {
	if credits <= 0 {
		return 0, nil
	}

	wallet, err := s.lockOrBackfillWallet(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	applied := credits
	if wallet.RemainingCredits < applied {
		applied = wallet.RemainingCredits
	}
	if applied == 0 {
		s.logger.Warn("Penalty skipped, wallet is empty",
			zap.Int64("user_id", userID),
			zap.Int("penalty", credits),
		)
		return 0, nil
	}

	if _, err := s.applyWalletDeltaTx(ctx, tx, userID, -applied, model.CreditTxPenalty, reason, ref); err != nil {
		return 0, err
	}

	return applied, nil
}

// GetWalletBalance возвращает снимок кошелька, создавая его бэкфиллом
// при первом обращении
func (s *LedgerService) GetWalletBalance(ctx context.Context, userID int64) (*model.CreditsBalance, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	// Первое обращение: создаём кошелёк из журнала
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	wallet, err = s.lockOrBackfillWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return wallet, nil
}

// GetCourseLedger возвращает снимок курсового леджера
func (s *LedgerService) GetCourseLedger(ctx context.Context, studentID, courseID int64) (*model.CourseCreditLedger, error) {
	ledger, err := s.courseRepo.Get(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("course ledger for student %d course %d: %w", studentID, courseID, model.ErrNotFound)
	}
	return ledger, nil
}

// GetWalletTransactions возвращает журнал кошелька
func (s *LedgerService) GetWalletTransactions(ctx context.Context, userID int64, limit int) ([]*model.CreditTransaction, error) {
	return s.walletRepo.GetTransactionsByUserID(ctx, userID, limit)
}

// GetTutorEarnings возвращает сумму и историю начислений преподавателя
func (s *LedgerService) GetTutorEarnings(ctx context.Context, tutorID int64, limit int) (int, []*model.TutorEarningTransaction, error) {
	total, err := s.earningRepo.SumByTutorID(ctx, tutorID)
	if err != nil {
		return 0, nil, err
	}

	history, err := s.earningRepo.GetByTutorID(ctx, tutorID, limit)
	if err != nil {
		return 0, nil, err
	}

	return total, history, nil
}

// VerifyWallet сверяет сохранённый баланс с балансом, восстановленным
// суммированием журнала. Журнал - источник правды; расхождение означает
// повреждение данных.
func (s *LedgerService) VerifyWallet(ctx context.Context, userID int64) error {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return fmt.Errorf("wallet for user %d: %w", userID, model.ErrNotFound)
	}

	credits, debits, err := s.walletRepo.SumTransactions(ctx, userID)
	if err != nil {
		return err
	}

	if wallet.TotalCredits != credits || wallet.UsedCredits != debits || !wallet.Consistent() {
		return fmt.Errorf("wallet %d diverged from transaction log: stored %d/%d/%d, derived %d/%d",
			userID, wallet.TotalCredits, wallet.UsedCredits, wallet.RemainingCredits, credits, debits)
	}

	return nil
}

// GetCourseLedgerTransactions возвращает журнал курсового леджера
func (s *LedgerService) GetCourseLedgerTransactions(ctx context.Context, studentID, courseID int64, limit int) ([]*model.CourseLedgerTransaction, error) {
	return s.courseRepo.GetTransactions(ctx, studentID, courseID, limit)
}

// VerifyCourseLedger сверяет сохранённый курсовой баланс с балансом,
// восстановленным суммированием журнала: чистая сумма всех записей
// должна равняться остатку
func (s *LedgerService) VerifyCourseLedger(ctx context.Context, studentID, courseID int64) error {
	ledger, err := s.courseRepo.Get(ctx, studentID, courseID)
	if err != nil {
		return err
	}
	if ledger == nil {
		return fmt.Errorf("course ledger for student %d course %d: %w", studentID, courseID, model.ErrNotFound)
	}

	derived, err := s.courseRepo.SumTransactions(ctx, studentID, courseID)
	if err != nil {
		return err
	}

	if ledger.CreditsRemaining != derived || !ledger.Consistent() {
		return fmt.Errorf("course ledger %d/%d diverged from transaction log: stored %d/%d/%d, derived remaining %d",
			studentID, courseID, ledger.CreditsAllocated, ledger.CreditsUsed, ledger.CreditsRemaining, derived)
	}

	return nil
}

func (s *LedgerService) emitCreditsChanged(userID int64, amount, remaining int, reason string) {
	ev := events.CreditsEvent{
		EventID:    uuid.New(),
		EventType:  events.SubjectCreditsChanged,
		UserID:     userID,
		Amount:     amount,
		Remaining:  remaining,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}

	// Доставка best-effort: ошибка публикации не влияет на операцию
	if err := s.publisher.Publish(events.SubjectCreditsChanged, ev); err != nil {
		s.logger.Warn("Failed to publish credits event", zap.Error(err))
	}

	if amount < 0 && remaining < s.lowThreshold {
		low := ev
		low.EventType = events.SubjectCreditsLow
		if err := s.publisher.Publish(events.SubjectCreditsLow, low); err != nil {
			s.logger.Warn("Failed to publish low credits event", zap.Error(err))
		}
	}
}

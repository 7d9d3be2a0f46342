package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muhammadworks94/tutorhub/internal/model"
	"github.com/muhammadworks94/tutorhub/internal/repository"
)

// TutorService управляет недельными правилами доступности и разовыми
// блоками недоступности преподавателя
type TutorService struct {
	userRepo     *repository.UserRepository
	availRepo    *repository.AvailabilityRepository
	availability *AvailabilityService
	logger       *zap.Logger
}

func NewTutorService(
	userRepo *repository.UserRepository,
	availRepo *repository.AvailabilityRepository,
	availabilitySvc *AvailabilityService,
	logger *zap.Logger,
) *TutorService {
	return &TutorService{
		userRepo:     userRepo,
		availRepo:    availRepo,
		availability: availabilitySvc,
		logger:       logger,
	}
}

func (s *TutorService) verifyTutor(ctx context.Context, tutorID int64) error {
	tutor, err := s.userRepo.GetByID(ctx, tutorID)
	if err != nil {
		return fmt.Errorf("get tutor: %w", err)
	}
	if tutor == nil {
		return fmt.Errorf("tutor %d: %w", tutorID, model.ErrNotFound)
	}
	if !tutor.IsTutor() {
		return fmt.Errorf("user %d is not a tutor: %w", tutorID, model.ErrInvalidRequest)
	}
	return nil
}

func validateRuleWindow(weekday, startMinutes, endMinutes, slotMinutes int) error {
	if weekday < 0 || weekday > 6 {
		return fmt.Errorf("weekday %d: %w", weekday, model.ErrInvalidRequest)
	}
	if startMinutes < 0 || endMinutes > 24*60 || endMinutes <= startMinutes {
		return fmt.Errorf("rule window %d-%d: %w", startMinutes, endMinutes, model.ErrInvalidRequest)
	}
	if !model.IsValidDuration(slotMinutes) {
		return fmt.Errorf("slot length %d minutes: %w", slotMinutes, model.ErrInvalidRequest)
	}
	if endMinutes-startMinutes < slotMinutes {
		return fmt.Errorf("rule window shorter than slot: %w", model.ErrInvalidRequest)
	}
	return nil
}

// CreateRule создаёт одно правило недельной доступности
func (s *TutorService) CreateRule(ctx context.Context, tutorID int64, weekday, startMinutes, endMinutes, slotMinutes int) (*model.AvailabilityRule, error) {
	if err := s.verifyTutor(ctx, tutorID); err != nil {
		return nil, err
	}
	if err := validateRuleWindow(weekday, startMinutes, endMinutes, slotMinutes); err != nil {
		return nil, err
	}

	rule := &model.AvailabilityRule{
		GroupID:      uuid.New(), // одиночное правило образует собственную группу
		TutorID:      tutorID,
		Weekday:      weekday,
		StartMinutes: startMinutes,
		EndMinutes:   endMinutes,
		SlotMinutes:  slotMinutes,
		IsActive:     true,
	}

	if err := s.availRepo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	s.availability.InvalidateTutor(tutorID)

	s.logger.Info("Availability rule created",
		zap.Int64("rule_id", rule.ID),
		zap.Int64("tutor_id", tutorID),
		zap.Int("weekday", weekday),
		zap.Int("slot_minutes", slotMinutes),
	)

	return rule, nil
}

// CreateRuleGroup создаёт группу правил с общим group_id: одинаковое окно
// на несколько дней недели
func (s *TutorService) CreateRuleGroup(ctx context.Context, tutorID int64, weekdays []int, startMinutes, endMinutes, slotMinutes int) (uuid.UUID, error) {
	if err := s.verifyTutor(ctx, tutorID); err != nil {
		return uuid.Nil, err
	}
	if len(weekdays) == 0 {
		return uuid.Nil, fmt.Errorf("no weekdays: %w", model.ErrInvalidRequest)
	}
	for _, wd := range weekdays {
		if err := validateRuleWindow(wd, startMinutes, endMinutes, slotMinutes); err != nil {
			return uuid.Nil, err
		}
	}

	groupID := uuid.New()
	created := 0
	for _, wd := range weekdays {
		rule := &model.AvailabilityRule{
			GroupID:      groupID,
			TutorID:      tutorID,
			Weekday:      wd,
			StartMinutes: startMinutes,
			EndMinutes:   endMinutes,
			SlotMinutes:  slotMinutes,
			IsActive:     true,
		}

		if err := s.availRepo.CreateRule(ctx, rule); err != nil {
			s.logger.Error("Failed to create rule in group",
				zap.Error(err),
				zap.String("group_id", groupID.String()),
				zap.Int("weekday", wd),
			)
			continue
		}
		created++
	}

	s.availability.InvalidateTutor(tutorID)

	s.logger.Info("Availability rule group created",
		zap.String("group_id", groupID.String()),
		zap.Int64("tutor_id", tutorID),
		zap.Int("weekdays", len(weekdays)),
		zap.Int("created", created),
	)

	return groupID, nil
}

// GetRules возвращает активные правила преподавателя
func (s *TutorService) GetRules(ctx context.Context, tutorID int64) ([]*model.AvailabilityRule, error) {
	return s.availRepo.GetActiveRulesByTutorID(ctx, tutorID)
}

// GetRuleGroup возвращает все правила группы, включая выключенные
func (s *TutorService) GetRuleGroup(ctx context.Context, groupID string) ([]*model.AvailabilityRule, error) {
	rules, err := s.availRepo.GetRulesByGroupID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule group %s: %w", groupID, model.ErrNotFound)
	}
	return rules, nil
}

// DeactivateRule выключает правило
func (s *TutorService) DeactivateRule(ctx context.Context, tutorID, ruleID int64) error {
	if err := s.availRepo.DeactivateRule(ctx, tutorID, ruleID); err != nil {
		return err
	}

	s.availability.InvalidateTutor(tutorID)

	s.logger.Info("Availability rule deactivated",
		zap.Int64("rule_id", ruleID),
		zap.Int64("tutor_id", tutorID),
	)

	return nil
}

// DeactivateRuleGroup выключает все правила группы
func (s *TutorService) DeactivateRuleGroup(ctx context.Context, tutorID int64, groupID string) error {
	affected, err := s.availRepo.DeactivateRuleGroup(ctx, tutorID, groupID)
	if err != nil {
		return err
	}

	s.availability.InvalidateTutor(tutorID)

	s.logger.Info("Availability rule group deactivated",
		zap.String("group_id", groupID),
		zap.Int64("tutor_id", tutorID),
		zap.Int64("affected", affected),
	)

	return nil
}

// AddBlock создаёт разовый интервал недоступности
func (s *TutorService) AddBlock(ctx context.Context, tutorID int64, startsAt, endsAt time.Time, reason string) (*model.AvailabilityBlock, error) {
	if err := s.verifyTutor(ctx, tutorID); err != nil {
		return nil, err
	}
	if !endsAt.After(startsAt) {
		return nil, fmt.Errorf("empty block interval: %w", model.ErrInvalidRequest)
	}

	block := &model.AvailabilityBlock{
		TutorID:  tutorID,
		StartsAt: startsAt.UTC(),
		EndsAt:   endsAt.UTC(),
		Reason:   reason,
	}

	if err := s.availRepo.CreateBlock(ctx, block); err != nil {
		return nil, err
	}

	s.availability.InvalidateTutor(tutorID)

	s.logger.Info("Availability block created",
		zap.Int64("block_id", block.ID),
		zap.Int64("tutor_id", tutorID),
		zap.Time("starts_at", block.StartsAt),
		zap.Time("ends_at", block.EndsAt),
	)

	return block, nil
}

// RemoveBlock удаляет блок недоступности
func (s *TutorService) RemoveBlock(ctx context.Context, tutorID, blockID int64) error {
	if err := s.availRepo.DeleteBlock(ctx, tutorID, blockID); err != nil {
		return err
	}

	s.availability.InvalidateTutor(tutorID)
	return nil
}

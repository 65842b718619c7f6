package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sirupsen/logrus"
)

type GoalService struct {
	repo domain.GoalRepository
	log  logrus.FieldLogger
}

func NewGoalService(repo domain.GoalRepository, log logrus.FieldLogger) *GoalService {
	return &GoalService{repo: repo, log: log}
}

// CreateGoal stores a new goal. New goals are always active.
func (s *GoalService) CreateGoal(ctx context.Context, owner identity.Owner, goal *domain.Goal) error {
	goal.IsActive = true
	goal.Normalize()
	if err := goal.Validate(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, owner, goal); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": owner.String(), "goal_id": goal.ID}).Debug("goal created")
	return nil
}

func (s *GoalService) GetGoals(ctx context.Context, owner identity.Owner, activeOnly bool) ([]domain.Goal, error) {
	return s.repo.FindByOwner(ctx, owner, activeOnly)
}

func (s *GoalService) GetGoal(ctx context.Context, owner identity.Owner, goalID uuid.UUID) (*domain.Goal, error) {
	return s.repo.FindByID(ctx, owner, goalID)
}

func (s *GoalService) UpdateGoal(ctx context.Context, owner identity.Owner, goalID uuid.UUID, patch domain.GoalPatch) (*domain.Goal, error) {
	if patch.IsEmpty() {
		return nil, financeErrors.NewValidationError("No fields to update")
	}
	goal, err := s.repo.FindByID(ctx, owner, goalID)
	if err != nil {
		return nil, err
	}
	goal.Apply(patch)
	goal.Normalize()
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, owner, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, owner identity.Owner, goalID uuid.UUID) error {
	return s.repo.Delete(ctx, owner, goalID)
}

package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sirupsen/logrus"
)

type BudgetService struct {
	repo domain.BudgetRepository
	log  logrus.FieldLogger
}

func NewBudgetService(repo domain.BudgetRepository, log logrus.FieldLogger) *BudgetService {
	return &BudgetService{repo: repo, log: log}
}

func (s *BudgetService) ensureUnique(ctx context.Context, owner identity.Owner, budget *domain.Budget) error {
	exists, err := s.repo.ExistsForCategory(ctx, owner, budget.Category, budget.Month, budget.ID)
	if err != nil {
		return err
	}
	if exists {
		return financeErrors.ErrBudgetAlreadyExists
	}
	return nil
}

func (s *BudgetService) CreateBudget(ctx context.Context, owner identity.Owner, budget *domain.Budget) error {
	budget.ID = uuid.Nil
	budget.Normalize()
	if err := budget.Validate(); err != nil {
		return err
	}
	if err := s.ensureUnique(ctx, owner, budget); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, owner, budget); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":   owner.String(),
		"budget_id": budget.ID,
		"month":     budget.Month.String(),
	}).Debug("budget created")
	return nil
}

func (s *BudgetService) GetBudgets(ctx context.Context, owner identity.Owner, month *domain.Month) ([]domain.Budget, error) {
	return s.repo.FindByOwner(ctx, owner, month)
}

func (s *BudgetService) UpdateBudget(ctx context.Context, owner identity.Owner, budgetID uuid.UUID, patch domain.BudgetPatch) (*domain.Budget, error) {
	if patch.IsEmpty() {
		return nil, financeErrors.NewValidationError("No fields to update")
	}
	budget, err := s.repo.FindByID(ctx, owner, budgetID)
	if err != nil {
		return nil, err
	}
	monthChanged := patch.Month != nil && *patch.Month != budget.Month
	budget.Apply(patch)
	budget.Normalize()
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if monthChanged {
		if err := s.ensureUnique(ctx, owner, budget); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, owner, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, owner identity.Owner, budgetID uuid.UUID) error {
	return s.repo.Delete(ctx, owner, budgetID)
}

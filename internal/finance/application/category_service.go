package application

import (
	"context"

	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sirupsen/logrus"
)

type CategoryService struct {
	repo domain.CategoryRepository
	log  logrus.FieldLogger
}

func NewCategoryService(repo domain.CategoryRepository, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

func (s *CategoryService) GetCategories(ctx context.Context, kind *domain.TransactionKind) ([]domain.Category, error) {
	return s.repo.FindAll(ctx, kind)
}

// CreateCategory adds a user-defined entry to the shared catalog.
func (s *CategoryService) CreateCategory(ctx context.Context, category *domain.Category) error {
	category.IsDefault = false
	if err := category.Validate(); err != nil {
		return err
	}
	exists, err := s.repo.ExistsByName(ctx, category.Name, category.Kind)
	if err != nil {
		return err
	}
	if exists {
		return financeErrors.ErrCategoryAlreadyExists
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"category_id": category.ID, "name": category.Name}).Info("category created")
	return nil
}

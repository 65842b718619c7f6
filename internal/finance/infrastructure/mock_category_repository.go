package infrastructure

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
)

type MockCategoryRepository struct {
	mu         sync.Mutex
	Categories []domain.Category
	Err        error
}

func (m *MockCategoryRepository) FindAll(_ context.Context, kind *domain.TransactionKind) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	categories := make([]domain.Category, 0)
	for _, c := range m.Categories {
		if kind == nil || c.Kind == *kind {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func (m *MockCategoryRepository) ExistsByName(_ context.Context, name string, kind domain.TransactionKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, c := range m.Categories {
		if strings.EqualFold(c.Name, name) && c.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCategoryRepository) Create(_ context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	category.ID = len(m.Categories) + 1
	category.CreatedAt = time.Now().UTC()
	m.Categories = append(m.Categories, *category)
	return nil
}

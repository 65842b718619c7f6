package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
)

type MockBudgetRepository struct {
	mu      sync.Mutex
	Budgets []domain.Budget
	Err     error
}

func (m *MockBudgetRepository) Save(_ context.Context, owner identity.Owner, budget *domain.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	now := time.Now().UTC()
	budget.ID = uuid.New()
	budget.UserID = owner.UserID()
	budget.CreatedAt, budget.UpdatedAt = now, now
	m.Budgets = append(m.Budgets, *budget)
	return nil
}

func (m *MockBudgetRepository) FindByID(_ context.Context, owner identity.Owner, budgetID uuid.UUID) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, b := range m.Budgets {
		if b.ID == budgetID && b.UserID == owner.UserID() {
			found := b
			return &found, nil
		}
	}
	return nil, financeErrors.ErrBudgetNotFound
}

func (m *MockBudgetRepository) FindByOwner(_ context.Context, owner identity.Owner, month *domain.Month) ([]domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	budgets := make([]domain.Budget, 0)
	for _, b := range m.Budgets {
		if b.UserID != owner.UserID() || (month != nil && b.Month != *month) {
			continue
		}
		budgets = append(budgets, b)
	}
	return budgets, nil
}

func (m *MockBudgetRepository) ExistsForCategory(_ context.Context, owner identity.Owner, category string, month domain.Month, excludeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, b := range m.Budgets {
		if b.UserID == owner.UserID() && b.Category == category && b.Month == month && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBudgetRepository) Update(_ context.Context, owner identity.Owner, budget *domain.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, b := range m.Budgets {
		if b.ID == budget.ID && b.UserID == owner.UserID() {
			budget.UpdatedAt = time.Now().UTC()
			m.Budgets[i] = *budget
			return nil
		}
	}
	return financeErrors.ErrBudgetNotFound
}

func (m *MockBudgetRepository) Delete(_ context.Context, owner identity.Owner, budgetID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, b := range m.Budgets {
		if b.ID == budgetID && b.UserID == owner.UserID() {
			m.Budgets = append(m.Budgets[:i], m.Budgets[i+1:]...)
			return nil
		}
	}
	return financeErrors.ErrBudgetNotFound
}

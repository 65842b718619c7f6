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

type MockGoalRepository struct {
	mu    sync.Mutex
	Goals []domain.Goal
	Err   error
}

func (m *MockGoalRepository) Save(_ context.Context, owner identity.Owner, goal *domain.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	now := time.Now().UTC()
	goal.ID = uuid.New()
	goal.UserID = owner.UserID()
	goal.CreatedAt, goal.UpdatedAt = now, now
	m.Goals = append(m.Goals, *goal)
	return nil
}

func (m *MockGoalRepository) FindByID(_ context.Context, owner identity.Owner, goalID uuid.UUID) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, g := range m.Goals {
		if g.ID == goalID && g.UserID == owner.UserID() {
			found := g
			return &found, nil
		}
	}
	return nil, financeErrors.ErrGoalNotFound
}

func (m *MockGoalRepository) FindByOwner(_ context.Context, owner identity.Owner, activeOnly bool) ([]domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	goals := make([]domain.Goal, 0)
	for _, g := range m.Goals {
		if g.UserID != owner.UserID() || (activeOnly && !g.IsActive) {
			continue
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (m *MockGoalRepository) Update(_ context.Context, owner identity.Owner, goal *domain.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, g := range m.Goals {
		if g.ID == goal.ID && g.UserID == owner.UserID() {
			goal.UpdatedAt = time.Now().UTC()
			m.Goals[i] = *goal
			return nil
		}
	}
	return financeErrors.ErrGoalNotFound
}

func (m *MockGoalRepository) Delete(_ context.Context, owner identity.Owner, goalID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, g := range m.Goals {
		if g.ID == goalID && g.UserID == owner.UserID() {
			m.Goals = append(m.Goals[:i], m.Goals[i+1:]...)
			return nil
		}
	}
	return financeErrors.ErrGoalNotFound
}

package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
)

// MockTransactionRepository is an in-memory TransactionRepository for service tests.
// Err, when set, is returned from every call.
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions []domain.Transaction
	Err          error
}

func (m *MockTransactionRepository) Save(_ context.Context, owner identity.Owner, transaction *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	now := time.Now().UTC()
	transaction.ID = uuid.New()
	transaction.UserID = owner.UserID()
	transaction.CreatedAt, transaction.UpdatedAt = now, now
	m.Transactions = append(m.Transactions, *transaction)
	return nil
}

func (m *MockTransactionRepository) SaveBatch(ctx context.Context, owner identity.Owner, transactions []*domain.Transaction) error {
	if m.Err != nil {
		return m.Err
	}
	for _, transaction := range transactions {
		if err := m.Save(ctx, owner, transaction); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockTransactionRepository) FindByID(_ context.Context, owner identity.Owner, transactionID uuid.UUID) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, t := range m.Transactions {
		if t.ID == transactionID && t.UserID == owner.UserID() {
			found := t
			return &found, nil
		}
	}
	return nil, financeErrors.ErrTransactionNotFound
}

func (m *MockTransactionRepository) Find(_ context.Context, owner identity.Owner, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	filtered := make([]domain.Transaction, 0)
	for _, t := range m.Transactions {
		if t.UserID != owner.UserID() {
			continue
		}
		if filter.From != nil && t.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.OccurredAt.After(*filter.To) {
			continue
		}
		if filter.Kind != nil && t.Kind != *filter.Kind {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		filtered = append(filtered, t)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].OccurredAt.After(filtered[j].OccurredAt)
	})

	offset := filter.Offset()
	if offset >= len(filtered) {
		return []domain.Transaction{}, nil
	}
	end := len(filtered)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return filtered[offset:end], nil
}

func (m *MockTransactionRepository) FindInRange(_ context.Context, owner identity.Owner, from, to time.Time, kind *domain.TransactionKind, category string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	filtered := make([]domain.Transaction, 0)
	for _, t := range m.Transactions {
		if t.UserID != owner.UserID() || t.OccurredAt.Before(from) || !t.OccurredAt.Before(to) {
			continue
		}
		if kind != nil && t.Kind != *kind {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered, nil
}

func (m *MockTransactionRepository) Update(_ context.Context, owner identity.Owner, transaction *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, t := range m.Transactions {
		if t.ID == transaction.ID && t.UserID == owner.UserID() {
			transaction.UpdatedAt = time.Now().UTC()
			m.Transactions[i] = *transaction
			return nil
		}
	}
	return financeErrors.ErrTransactionNotFound
}

func (m *MockTransactionRepository) Delete(_ context.Context, owner identity.Owner, transactionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, t := range m.Transactions {
		if t.ID == transactionID && t.UserID == owner.UserID() {
			m.Transactions = append(m.Transactions[:i], m.Transactions[i+1:]...)
			return nil
		}
	}
	return financeErrors.ErrTransactionNotFound
}

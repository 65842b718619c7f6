package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Clock returns the current instant; tests replace it to pin "now".
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

type TransactionService struct {
	repo  domain.TransactionRepository
	log   logrus.FieldLogger
	clock Clock
}

func NewTransactionService(repo domain.TransactionRepository, log logrus.FieldLogger, clock Clock) *TransactionService {
	if clock == nil {
		clock = SystemClock
	}
	return &TransactionService{repo: repo, log: log, clock: clock}
}

func (s *TransactionService) prepare(transaction *domain.Transaction) error {
	if transaction.OccurredAt.IsZero() {
		transaction.OccurredAt = s.clock()
	}
	transaction.Normalize()
	return transaction.Validate()
}

func (s *TransactionService) CreateTransaction(ctx context.Context, owner identity.Owner, transaction *domain.Transaction) error {
	if err := s.prepare(transaction); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, owner, transaction); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":        owner.String(),
		"transaction_id": transaction.ID,
		"type":           transaction.Kind,
	}).Debug("transaction created")
	return nil
}

// CreateTransactionsBulk validates every item first and reports all problems
// by position; nothing is stored unless the whole batch is valid.
func (s *TransactionService) CreateTransactionsBulk(ctx context.Context, owner identity.Owner, transactions []*domain.Transaction) error {
	validationErrors := &financeErrors.ValidationErrors{}
	for i, transaction := range transactions {
		err := s.prepare(transaction)
		if err == nil {
			continue
		}
		var nested *financeErrors.ValidationErrors
		if errors.As(err, &nested) {
			for _, msg := range nested.Messages() {
				validationErrors.Add(financeErrors.NewIndexedValidationError(i+1, msg))
			}
			continue
		}
		validationErrors.Add(financeErrors.NewIndexedValidationError(i+1, err.Error()))
	}
	if err := validationErrors.ErrOrNil(); err != nil {
		return err
	}

	if err := s.repo.SaveBatch(ctx, owner, transactions); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"user_id": owner.String(),
		"count":   len(transactions),
	}).Info("transactions imported")
	return nil
}

func (s *TransactionService) GetUserTransactions(ctx context.Context, owner identity.Owner, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if filter.Limit == 0 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit < 1 || filter.Limit > MaxPageLimit {
		return nil, financeErrors.NewValidationErrorf("Limit must be between 1 and %d", MaxPageLimit)
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Page < 1 {
		return nil, financeErrors.NewValidationError("Page must be a positive number")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, financeErrors.NewValidationError("End date must not be before start date")
	}
	return s.repo.Find(ctx, owner, filter)
}

func (s *TransactionService) GetTransaction(ctx context.Context, owner identity.Owner, transactionID uuid.UUID) (*domain.Transaction, error) {
	return s.repo.FindByID(ctx, owner, transactionID)
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, owner identity.Owner, transactionID uuid.UUID, patch domain.TransactionPatch) (*domain.Transaction, error) {
	if patch.IsEmpty() {
		return nil, financeErrors.NewValidationError("No fields to update")
	}
	transaction, err := s.repo.FindByID(ctx, owner, transactionID)
	if err != nil {
		return nil, err
	}
	transaction.Apply(patch)
	transaction.Normalize()
	if err := transaction.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, owner, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, owner identity.Owner, transactionID uuid.UUID) error {
	if err := s.repo.Delete(ctx, owner, transactionID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":        owner.String(),
		"transaction_id": transactionID,
	}).Debug("transaction deleted")
	return nil
}

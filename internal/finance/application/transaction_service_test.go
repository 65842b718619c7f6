package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/finance/infrastructure"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sebuszqo/BudgetManager/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = identity.MustOwner("9f1c2d4e-0000-4000-8000-000000000001")
	bob   = identity.MustOwner("9f1c2d4e-0000-4000-8000-000000000002")

	fixedNow = time.Date(2024, time.March, 31, 22, 30, 0, 0, time.UTC)
)

func fixedClock() time.Time {
	return fixedNow
}

func strPtr(s string) *string {
	return &s
}

func newTransactionService(repo *infrastructure.MockTransactionRepository) *TransactionService {
	return NewTransactionService(repo, logger.Discard(), fixedClock)
}

func TestCreateTransaction_DefaultsDateAndRoundsAmount(t *testing.T) {
	repo := &infrastructure.MockTransactionRepository{}
	service := newTransactionService(repo)

	tx := &domain.Transaction{
		Amount:      decimal.RequireFromString("12.345"),
		Kind:        domain.KindExpense,
		Category:    "  Transport ",
		Description: strPtr("   "),
	}
	err := service.CreateTransaction(context.Background(), alice, tx)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.Equal(t, alice.UserID(), tx.UserID)
	assert.Equal(t, fixedNow, tx.OccurredAt)
	assert.Equal(t, "Transport", tx.Category)
	assert.Nil(t, tx.Description)
	assert.True(t, decimal.RequireFromString("12.35").Equal(tx.Amount), "got %s", tx.Amount)
	assert.Len(t, repo.Transactions, 1)
}

func TestCreateTransaction_Validation(t *testing.T) {
	testCases := []struct {
		name string
		tx   domain.Transaction
		msg  string
	}{
		{name: "Zero Amount", tx: domain.Transaction{Amount: decimal.Zero, Kind: domain.KindIncome, Category: "Salaire"}, msg: financeErrors.ErrInvalidAmount.Error()},
		{name: "Negative Amount", tx: domain.Transaction{Amount: decimal.NewFromInt(-5), Kind: domain.KindIncome, Category: "Salaire"}, msg: financeErrors.ErrInvalidAmount.Error()},
		{name: "Sub Cent Amount", tx: domain.Transaction{Amount: decimal.RequireFromString("0.004"), Kind: domain.KindIncome, Category: "Salaire"}, msg: financeErrors.ErrInvalidAmount.Error()},
		{name: "Unknown Kind", tx: domain.Transaction{Amount: decimal.NewFromInt(5), Kind: "transfer", Category: "Salaire"}, msg: financeErrors.ErrInvalidKind.Error()},
		{name: "Missing Category", tx: domain.Transaction{Amount: decimal.NewFromInt(5), Kind: domain.KindIncome}, msg: "Category is required"},
		{name: "Long Payment Method", tx: domain.Transaction{Amount: decimal.NewFromInt(5), Kind: domain.KindIncome, Category: "Salaire",
			PaymentMethod: strPtr("a very long payment method name that goes past fifty characters")}, msg: "Payment method must be of length less than 50"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &infrastructure.MockTransactionRepository{}
			tx := tc.tx

			err := newTransactionService(repo).CreateTransaction(context.Background(), alice, &tx)

			require.Error(t, err)
			assert.True(t, financeErrors.IsValidationErrors(err))
			assert.True(t, financeErrors.IsValidationError(err))
			assert.Contains(t, err.Error(), tc.msg)
			assert.Empty(t, repo.Transactions)
		})
	}
}

func TestCreateTransactionsBulk_ReportsEveryInvalidItem(t *testing.T) {
	repo := &infrastructure.MockTransactionRepository{}
	service := newTransactionService(repo)

	batch := []*domain.Transaction{
		{Amount: decimal.NewFromInt(10), Kind: domain.KindExpense, Category: "Transport"},
		{Amount: decimal.Zero, Kind: domain.KindExpense, Category: "Transport"},
		{Amount: decimal.NewFromInt(10), Kind: "gift", Category: ""},
	}
	err := service.CreateTransactionsBulk(context.Background(), alice, batch)

	var validationErrors *financeErrors.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))
	assert.Equal(t, []string{
		"Item 2: " + financeErrors.ErrInvalidAmount.Error(),
		"Item 3: " + financeErrors.ErrInvalidKind.Error(),
		"Item 3: Category is required",
	}, validationErrors.Messages())
	assert.Empty(t, repo.Transactions)
}

func TestCreateTransactionsBulk_StoresAll(t *testing.T) {
	repo := &infrastructure.MockTransactionRepository{}
	service := newTransactionService(repo)

	batch := []*domain.Transaction{
		{Amount: decimal.NewFromInt(10), Kind: domain.KindExpense, Category: "Transport"},
		{Amount: decimal.NewFromInt(1000), Kind: domain.KindIncome, Category: "Salaire", OccurredAt: fixedNow.AddDate(0, -1, 0)},
	}
	require.NoError(t, service.CreateTransactionsBulk(context.Background(), alice, batch))
	assert.Len(t, repo.Transactions, 2)
	assert.NotEqual(t, uuid.Nil, batch[1].ID)
}

func TestGetUserTransactions_Pagination(t *testing.T) {
	repo := &infrastructure.MockTransactionRepository{}
	service := newTransactionService(repo)
	for i := 0; i < 5; i++ {
		require.NoError(t, service.CreateTransaction(context.Background(), alice, &domain.Transaction{
			Amount:     decimal.NewFromInt(int64(i + 1)),
			Kind:       domain.KindExpense,
			Category:   "Divers",
			OccurredAt: fixedNow.AddDate(0, 0, -i),
		}))
	}
	require.NoError(t, service.CreateTransaction(context.Background(), bob, &domain.Transaction{
		Amount: decimal.NewFromInt(99), Kind: domain.KindExpense, Category: "Divers",
	}))

	page, err := service.GetUserTransactions(context.Background(), alice, domain.TransactionFilter{Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, decimal.NewFromInt(3).Equal(page[0].Amount))
	assert.True(t, decimal.NewFromInt(4).Equal(page[1].Amount))

	all, err := service.GetUserTransactions(context.Background(), alice, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestGetUserTransactions_RejectsBadFilters(t *testing.T) {
	service := newTransactionService(&infrastructure.MockTransactionRepository{})
	from := fixedNow
	to := fixedNow.AddDate(0, 0, -1)

	filters := []domain.TransactionFilter{
		{Limit: 1001},
		{Limit: -1},
		{Page: -2},
		{From: &from, To: &to},
	}
	for _, filter := range filters {
		_, err := service.GetUserTransactions(context.Background(), alice, filter)
		assert.True(t, financeErrors.IsValidationError(err), "filter %+v", filter)
	}
}

func TestUpdateTransaction_PartialAndOwnerScoped(t *testing.T) {
	repo := &infrastructure.MockTransactionRepository{}
	service := newTransactionService(repo)
	tx := &domain.Transaction{Amount: decimal.NewFromInt(40), Kind: domain.KindExpense, Category: "Loisirs"}
	require.NoError(t, service.CreateTransaction(context.Background(), alice, tx))

	newAmount := decimal.RequireFromString("55.5")
	updated, err := service.UpdateTransaction(context.Background(), alice, tx.ID, domain.TransactionPatch{Amount: &newAmount})
	require.NoError(t, err)
	assert.True(t, newAmount.Equal(updated.Amount))
	assert.Equal(t, "Loisirs", updated.Category)

	_, err = service.UpdateTransaction(context.Background(), bob, tx.ID, domain.TransactionPatch{Amount: &newAmount})
	assert.ErrorIs(t, err, financeErrors.ErrTransactionNotFound)

	negative := decimal.NewFromInt(-1)
	_, err = service.UpdateTransaction(context.Background(), alice, tx.ID, domain.TransactionPatch{Amount: &negative})
	assert.True(t, financeErrors.IsValidationError(err))

	_, err = service.UpdateTransaction(context.Background(), alice, tx.ID, domain.TransactionPatch{})
	assert.True(t, financeErrors.IsValidationError(err))
}

func TestDeleteTransaction_ForeignIsNotFound(t *testing.T) {
	repo := &infrastructure.MockTransactionRepository{}
	service := newTransactionService(repo)
	tx := &domain.Transaction{Amount: decimal.NewFromInt(40), Kind: domain.KindExpense, Category: "Loisirs"}
	require.NoError(t, service.CreateTransaction(context.Background(), alice, tx))

	err := service.DeleteTransaction(context.Background(), bob, tx.ID)
	assert.ErrorIs(t, err, financeErrors.ErrTransactionNotFound)
	assert.Len(t, repo.Transactions, 1)

	require.NoError(t, service.DeleteTransaction(context.Background(), alice, tx.ID))
	assert.Empty(t, repo.Transactions)
}

func TestTransactionService_PropagatesStorageErrors(t *testing.T) {
	storageErr := errors.New("connection refused")
	repo := &infrastructure.MockTransactionRepository{Err: storageErr}
	service := newTransactionService(repo)

	err := service.CreateTransaction(context.Background(), alice, &domain.Transaction{
		Amount: decimal.NewFromInt(1), Kind: domain.KindIncome, Category: "Bonus",
	})
	assert.ErrorIs(t, err, storageErr)
	assert.False(t, financeErrors.IsValidationError(err))
}

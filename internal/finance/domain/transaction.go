package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/shopspring/decimal"
)

const (
	maxDescriptionLength   = 200
	maxCategoryLength      = 50
	maxPaymentMethodLength = 50
)

type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

func (k TransactionKind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

func ParseTransactionKind(s string) (TransactionKind, error) {
	kind := TransactionKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", errors.ErrInvalidKind
	}
	return kind, nil
}

type TransactionRepository interface {
	Save(ctx context.Context, owner identity.Owner, transaction *Transaction) error
	// SaveBatch stores all transactions or none of them.
	SaveBatch(ctx context.Context, owner identity.Owner, transactions []*Transaction) error
	FindByID(ctx context.Context, owner identity.Owner, transactionID uuid.UUID) (*Transaction, error)
	Find(ctx context.Context, owner identity.Owner, filter TransactionFilter) ([]Transaction, error)
	// FindInRange returns rows with from <= occurred_at < to. kind and category are optional.
	FindInRange(ctx context.Context, owner identity.Owner, from, to time.Time, kind *TransactionKind, category string) ([]Transaction, error)
	Update(ctx context.Context, owner identity.Owner, transaction *Transaction) error
	Delete(ctx context.Context, owner identity.Owner, transactionID uuid.UUID) error
}

type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          TransactionKind `json:"type"`
	Category      string          `json:"category"`
	Description   *string         `json:"description"`
	PaymentMethod *string         `json:"payment_method"`
	OccurredAt    time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Normalize rounds the amount to cents and trims free text before validation.
func (t *Transaction) Normalize() {
	t.Amount = t.Amount.Round(2)
	t.Category = strings.TrimSpace(t.Category)
	t.Description = trimOptional(t.Description)
	t.PaymentMethod = trimOptional(t.PaymentMethod)
	if !t.OccurredAt.IsZero() {
		t.OccurredAt = t.OccurredAt.UTC()
	}
}

func (t *Transaction) Validate() error {
	ve := &errors.ValidationErrors{}
	if !t.Amount.IsPositive() {
		ve.Add(errors.ErrInvalidAmount)
	}
	if !t.Kind.IsValid() {
		ve.Add(errors.ErrInvalidKind)
	}
	if t.Category == "" {
		ve.Add(errors.NewValidationError("Category is required"))
	} else if len(t.Category) > maxCategoryLength {
		ve.Add(errors.NewValidationErrorf("Category must be of length less than %d", maxCategoryLength))
	}
	if t.Description != nil && len(*t.Description) > maxDescriptionLength {
		ve.Add(errors.NewValidationErrorf("Description must be of length less than %d", maxDescriptionLength))
	}
	if t.PaymentMethod != nil && len(*t.PaymentMethod) > maxPaymentMethodLength {
		ve.Add(errors.NewValidationErrorf("Payment method must be of length less than %d", maxPaymentMethodLength))
	}
	if t.OccurredAt.IsZero() {
		ve.Add(errors.NewValidationError("Date is required"))
	}
	return ve.ErrOrNil()
}

// TransactionPatch holds the fields of a partial update; nil means "leave as is".
type TransactionPatch struct {
	Amount        *decimal.Decimal `json:"amount"`
	Kind          *TransactionKind `json:"type"`
	Category      *string          `json:"category"`
	Description   *string          `json:"description"`
	PaymentMethod *string          `json:"payment_method"`
	OccurredAt    *time.Time       `json:"date"`
}

func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Kind == nil && p.Category == nil &&
		p.Description == nil && p.PaymentMethod == nil && p.OccurredAt == nil
}

func (t *Transaction) Apply(p TransactionPatch) {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = p.PaymentMethod
	}
	if p.OccurredAt != nil {
		t.OccurredAt = *p.OccurredAt
	}
}

type TransactionFilter struct {
	From     *time.Time
	To       *time.Time
	Kind     *TransactionKind
	Category string
	Limit    int
	Page     int
}

func (f TransactionFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

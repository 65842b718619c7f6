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

type BudgetRepository interface {
	Save(ctx context.Context, owner identity.Owner, budget *Budget) error
	FindByID(ctx context.Context, owner identity.Owner, budgetID uuid.UUID) (*Budget, error)
	// FindByOwner returns every budget of the owner, or only those of month when it is set.
	FindByOwner(ctx context.Context, owner identity.Owner, month *Month) ([]Budget, error)
	ExistsForCategory(ctx context.Context, owner identity.Owner, category string, month Month, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, owner identity.Owner, budget *Budget) error
	Delete(ctx context.Context, owner identity.Owner, budgetID uuid.UUID) error
}

// Budget is a spending limit for one expense category in one month.
// (user, category, month) is unique.
type Budget struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Month     Month           `json:"month"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (b *Budget) Normalize() {
	b.Amount = b.Amount.Round(2)
	b.Category = strings.TrimSpace(b.Category)
}

func (b *Budget) Validate() error {
	ve := &errors.ValidationErrors{}
	if b.Category == "" {
		ve.Add(errors.NewValidationError("Category is required"))
	} else if len(b.Category) > maxCategoryLength {
		ve.Add(errors.NewValidationErrorf("Category must be of length less than %d", maxCategoryLength))
	}
	if !b.Amount.IsPositive() {
		ve.Add(errors.ErrInvalidAmount)
	}
	if b.Month.IsZero() {
		ve.Add(errors.ErrMissingMonth)
	}
	return ve.ErrOrNil()
}

type BudgetPatch struct {
	Amount *decimal.Decimal `json:"amount"`
	Month  *Month           `json:"month"`
}

func (p BudgetPatch) IsEmpty() bool {
	return p.Amount == nil && p.Month == nil
}

func (b *Budget) Apply(p BudgetPatch) {
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Month != nil {
		b.Month = *p.Month
	}
}

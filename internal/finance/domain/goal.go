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

const maxGoalNameLength = 100

type GoalRepository interface {
	Save(ctx context.Context, owner identity.Owner, goal *Goal) error
	FindByID(ctx context.Context, owner identity.Owner, goalID uuid.UUID) (*Goal, error)
	FindByOwner(ctx context.Context, owner identity.Owner, activeOnly bool) ([]Goal, error)
	Update(ctx context.Context, owner identity.Owner, goal *Goal) error
	Delete(ctx context.Context, owner identity.Owner, goalID uuid.UUID) error
}

// Goal is a savings target. It is not linked to transactions; CurrentAmount is maintained by the user.
type Goal struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *time.Time      `json:"deadline"`
	IsActive      bool            `json:"is_active"`
	Description   *string         `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (g *Goal) Normalize() {
	g.Name = strings.TrimSpace(g.Name)
	g.TargetAmount = g.TargetAmount.Round(2)
	g.CurrentAmount = g.CurrentAmount.Round(2)
	g.Description = trimOptional(g.Description)
}

func (g *Goal) Validate() error {
	ve := &errors.ValidationErrors{}
	if g.Name == "" {
		ve.Add(errors.NewValidationError("Name is required"))
	} else if len(g.Name) > maxGoalNameLength {
		ve.Add(errors.NewValidationErrorf("Name must be of length less than %d", maxGoalNameLength))
	}
	if !g.TargetAmount.IsPositive() {
		ve.Add(errors.NewValidationError("Target amount must be greater than zero"))
	}
	if g.CurrentAmount.IsNegative() {
		ve.Add(errors.NewValidationError("Current amount cannot be negative"))
	}
	if g.Description != nil && len(*g.Description) > maxDescriptionLength {
		ve.Add(errors.NewValidationErrorf("Description must be of length less than %d", maxDescriptionLength))
	}
	return ve.ErrOrNil()
}

type GoalPatch struct {
	Name          *string          `json:"name"`
	TargetAmount  *decimal.Decimal `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	Deadline      *time.Time       `json:"deadline"`
	Description   *string          `json:"description"`
	IsActive      *bool            `json:"is_active"`
}

func (p GoalPatch) IsEmpty() bool {
	return p.Name == nil && p.TargetAmount == nil && p.CurrentAmount == nil &&
		p.Deadline == nil && p.Description == nil && p.IsActive == nil
}

func (g *Goal) Apply(p GoalPatch) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.Deadline != nil {
		g.Deadline = p.Deadline
	}
	if p.Description != nil {
		g.Description = p.Description
	}
	if p.IsActive != nil {
		g.IsActive = *p.IsActive
	}
}

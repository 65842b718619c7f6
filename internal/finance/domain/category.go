package domain

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sebuszqo/BudgetManager/internal/finance/errors"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Category belongs to the global catalog shared by all users.
type Category struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Icon      string          `json:"icon"`
	Color     string          `json:"color"`
	Kind      TransactionKind `json:"type"`
	IsDefault bool            `json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
}

type CategoryRepository interface {
	FindAll(ctx context.Context, kind *TransactionKind) ([]Category, error)
	ExistsByName(ctx context.Context, name string, kind TransactionKind) (bool, error)
	Create(ctx context.Context, category *Category) error
}

func (c *Category) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	ve := &errors.ValidationErrors{}
	if c.Name == "" {
		ve.Add(errors.NewValidationError("Name is required"))
	} else if len(c.Name) > maxCategoryLength {
		ve.Add(errors.NewValidationErrorf("Name must be of length less than %d", maxCategoryLength))
	}
	if !c.Kind.IsValid() {
		ve.Add(errors.ErrInvalidKind)
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		ve.Add(errors.NewValidationError("Color must be a hex value like #28a745"))
	}
	return ve.ErrOrNil()
}

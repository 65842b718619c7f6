package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
)

const budgetColumns = `id, user_id, category, amount, month, created_at, updated_at`

type BudgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func scanBudget(row rowScanner) (domain.Budget, error) {
	var b domain.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount, &b.Month, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *BudgetRepository) Save(ctx context.Context, owner identity.Owner, budget *domain.Budget) error {
	budget.UserID = owner.UserID()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, category, amount, month)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		budget.UserID, budget.Category, budget.Amount, budget.Month,
	).Scan(&budget.ID, &budget.CreatedAt, &budget.UpdatedAt)
	if isUniqueViolation(err) {
		return financeErrors.ErrBudgetAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

func (r *BudgetRepository) FindByID(ctx context.Context, owner identity.Owner, budgetID uuid.UUID) (*domain.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`,
		budgetID, owner.UserID())
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, financeErrors.ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch budget: %w", err)
	}
	return &b, nil
}

func (r *BudgetRepository) FindByOwner(ctx context.Context, owner identity.Owner, month *domain.Month) ([]domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1`
	args := []interface{}{owner.UserID()}
	if month != nil {
		query += ` AND month = $2`
		args = append(args, *month)
	}
	query += ` ORDER BY month DESC, category`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]domain.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}
	return budgets, nil
}

func (r *BudgetRepository) ExistsForCategory(ctx context.Context, owner identity.Owner, category string, month domain.Month, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM budgets WHERE user_id = $1 AND category = $2 AND month = $3 AND id <> $4)`,
		owner.UserID(), category, month, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check budget existence: %w", err)
	}
	return exists, nil
}

func (r *BudgetRepository) Update(ctx context.Context, owner identity.Owner, budget *domain.Budget) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE budgets SET amount = $1, month = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING updated_at`,
		budget.Amount, budget.Month, budget.ID, owner.UserID(),
	).Scan(&budget.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return financeErrors.ErrBudgetNotFound
	}
	if isUniqueViolation(err) {
		return financeErrors.ErrBudgetAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return nil
}

func (r *BudgetRepository) Delete(ctx context.Context, owner identity.Owner, budgetID uuid.UUID) error {
	return deleteOwned(ctx, r.db, "budgets", budgetID, owner, financeErrors.ErrBudgetNotFound)
}

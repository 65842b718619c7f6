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

const goalColumns = `id, user_id, name, target_amount, current_amount, deadline, is_active, description, created_at, updated_at`

type GoalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func scanGoal(row rowScanner) (domain.Goal, error) {
	var g domain.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline,
		&g.IsActive, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *GoalRepository) Save(ctx context.Context, owner identity.Owner, goal *domain.Goal) error {
	goal.UserID = owner.UserID()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO goals (user_id, name, target_amount, current_amount, deadline, is_active, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		goal.UserID, goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.Deadline, goal.IsActive, goal.Description,
	).Scan(&goal.ID, &goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) FindByID(ctx context.Context, owner identity.Owner, goalID uuid.UUID) (*domain.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`,
		goalID, owner.UserID())
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, financeErrors.ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goal: %w", err)
	}
	return &g, nil
}

func (r *GoalRepository) FindByOwner(ctx context.Context, owner identity.Owner, activeOnly bool) ([]domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, owner.UserID())
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	goals := make([]domain.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}

func (r *GoalRepository) Update(ctx context.Context, owner identity.Owner, goal *domain.Goal) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE goals
		SET name = $1, target_amount = $2, current_amount = $3, deadline = $4, is_active = $5, description = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
		RETURNING updated_at`,
		goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.Deadline, goal.IsActive, goal.Description,
		goal.ID, owner.UserID(),
	).Scan(&goal.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return financeErrors.ErrGoalNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) Delete(ctx context.Context, owner identity.Owner, goalID uuid.UUID) error {
	return deleteOwned(ctx, r.db, "goals", goalID, owner, financeErrors.ErrGoalNotFound)
}

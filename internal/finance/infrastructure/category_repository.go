package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
)

const uniqueViolationCode = "23505"

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) FindAll(ctx context.Context, kind *domain.TransactionKind) ([]domain.Category, error) {
	query := "SELECT id, name, icon, color, type, is_default, created_at FROM categories"
	var args []interface{}

	if kind != nil {
		query += " WHERE type = $1"
		args = append(args, *kind)
	}
	query += " ORDER BY type, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Icon, &category.Color,
			&category.Kind, &category.IsDefault, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) ExistsByName(ctx context.Context, name string, kind domain.TransactionKind) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM categories WHERE LOWER(name) = LOWER($1) AND type = $2)"
	if err := r.db.QueryRowContext(ctx, query, name, kind).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}
	return exists, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, icon, color, type, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		category.Name, category.Icon, category.Color, category.Kind, category.IsDefault,
	).Scan(&category.ID, &category.CreatedAt)
	if isUniqueViolation(err) {
		return financeErrors.ErrCategoryAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

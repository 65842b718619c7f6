package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
)

const transactionColumns = `id, user_id, amount, type, category, description, payment_method, occurred_at, created_at, updated_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Kind, &t.Category, &t.Description,
		&t.PaymentMethod, &t.OccurredAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TransactionRepository) Save(ctx context.Context, owner identity.Owner, transaction *domain.Transaction) error {
	transaction.UserID = owner.UserID()
	err := r.db.QueryRowContext(ctx, insertTransactionQuery,
		transaction.UserID, transaction.Amount, transaction.Kind, transaction.Category,
		transaction.Description, transaction.PaymentMethod, transaction.OccurredAt,
	).Scan(&transaction.ID, &transaction.CreatedAt, &transaction.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

const insertTransactionQuery = `INSERT INTO transactions (user_id, amount, type, category, description, payment_method, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

func (r *TransactionRepository) SaveBatch(ctx context.Context, owner identity.Owner, transactions []*domain.Transaction) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertTransactionQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, transaction := range transactions {
		transaction.UserID = owner.UserID()
		err = stmt.QueryRowContext(ctx,
			transaction.UserID, transaction.Amount, transaction.Kind, transaction.Category,
			transaction.Description, transaction.PaymentMethod, transaction.OccurredAt,
		).Scan(&transaction.ID, &transaction.CreatedAt, &transaction.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, owner identity.Owner, transactionID uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		transactionID, owner.UserID())
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, financeErrors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction: %w", err)
	}
	return &t, nil
}

func (r *TransactionRepository) Find(ctx context.Context, owner identity.Owner, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{owner.UserID()}
	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.From != nil {
		add("occurred_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("occurred_at <= $%d", *filter.To)
	}
	if filter.Kind != nil {
		add("type = $%d", *filter.Kind)
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(conditions, " AND ") +
		fmt.Sprintf(` ORDER BY occurred_at DESC, created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	return r.query(ctx, query, args...)
}

func (r *TransactionRepository) FindInRange(ctx context.Context, owner identity.Owner, from, to time.Time, kind *domain.TransactionKind, category string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3`
	args := []interface{}{owner.UserID(), from, to}
	if kind != nil {
		args = append(args, *kind)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY occurred_at"

	return r.query(ctx, query, args...)
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) Update(ctx context.Context, owner identity.Owner, transaction *domain.Transaction) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE transactions
		SET amount = $1, type = $2, category = $3, description = $4, payment_method = $5, occurred_at = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
		RETURNING updated_at`,
		transaction.Amount, transaction.Kind, transaction.Category, transaction.Description,
		transaction.PaymentMethod, transaction.OccurredAt, transaction.ID, owner.UserID(),
	).Scan(&transaction.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return financeErrors.ErrTransactionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, owner identity.Owner, transactionID uuid.UUID) error {
	return deleteOwned(ctx, r.db, "transactions", transactionID, owner, financeErrors.ErrTransactionNotFound)
}

// deleteOwned removes one row of table owned by owner; table is always a package constant.
func deleteOwned(ctx context.Context, db *sql.DB, table string, id uuid.UUID, owner identity.Owner, notFound error) error {
	result, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1 AND user_id = $2`, id, owner.UserID())
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

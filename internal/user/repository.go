package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByLoginOrEmail(ctx context.Context, loginOrEmail string) (*User, error)
	// FindByUsernameOrEmail looks for another account holding either value.
	FindByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (*User, error)
	Update(ctx context.Context, user *User) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) Repository {
	return &userRepository{
		db: db,
	}
}

const userColumns = `id, email, username, full_name, password_hash, hash_token, is_active, two_factor_enabled, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.FullName, &user.PasswordHash,
		&user.HashToken, &user.IsActive, &user.TwoFactorEnabled, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %w", err)
	}
	return &user, nil
}

// uniqueViolation maps the users unique indexes onto the matching conflict.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	if pgErr.ConstraintName == "users_email_key" {
		return ErrEmailAlreadyExists
	}
	return ErrUsernameAlreadyExists
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (email, username, full_name, password_hash, hash_token, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, user.Email, user.Username, user.FullName, user.PasswordHash, user.HashToken, user.IsActive).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("could not create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, userID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, userID))
}

func (r *userRepository) FindByLoginOrEmail(ctx context.Context, loginOrEmail string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR LOWER(email) = LOWER($1) LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, loginOrEmail))
}

func (r *userRepository) FindByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (username = $1 OR LOWER(email) = LOWER($2))
		  AND ($3 = '' OR id::text <> $3)
		LIMIT 1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, username, email, excludeID))
}

func (r *userRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET email = $1, username = $2, full_name = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, user.Email, user.Username, user.FullName, user.ID).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("could not update user: %w", err)
	}
	return nil
}

package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxEmailLength    = 100
	minEmailLength    = 3
	maxUsernameLength = 30
	minUsernameLength = 3
	maxFullNameLength = 100
	minPasswordLength = 8
	bcryptCost        = 12
)

var (
	ErrUserNotFound = errors.New("user not found")

	ErrInvalidEmail     = errors.New("email address is not valid")
	ErrEmailLength      = fmt.Errorf("email address must be between %d and %d characters", minEmailLength, maxEmailLength)
	ErrUsernameLength   = fmt.Errorf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	ErrFullNameLength   = fmt.Errorf("full name must be at most %d characters", maxFullNameLength)
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrNothingToUpdate  = errors.New("no fields to update")

	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
)

var validationErrors = []error{
	ErrInvalidEmail, ErrEmailLength, ErrUsernameLength, ErrFullNameLength, ErrPasswordTooShort, ErrNothingToUpdate,
}

func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists) || errors.Is(err, ErrUsernameAlreadyExists)
}

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Username         string    `json:"username"`
	FullName         *string   `json:"full_name"`
	PasswordHash     string    `json:"-"`
	HashToken        string    `json:"-"`
	IsActive         bool      `json:"is_active"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// ProfileUpdate carries the editable profile fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByLoginOrEmail(ctx context.Context, loginOrEmail string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error)
}

type service struct {
	repo Repository
	log  logrus.FieldLogger
}

func NewUserService(repo Repository, log logrus.FieldLogger) Service {
	return &service{
		repo: repo,
		log:  log,
	}
}

func hashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashedPasswordBytes), err
}

// generateHashToken returns the per-user secret refresh tokens are bound to.
func generateHashToken() (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", fmt.Errorf("could not generate hash token: %w", err)
	}
	return hex.EncodeToString(token), nil
}

// validateEmailAddress only checks the format; no MX lookup is made.
func validateEmailAddress(email string) error {
	if len(email) > maxEmailLength || len(email) < minEmailLength {
		return ErrEmailLength
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func validateUsername(username string) error {
	if len(username) > maxUsernameLength || len(username) < minUsernameLength {
		return ErrUsernameLength
	}
	return nil
}

func normalizeFullName(fullName string) (*string, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, nil
	}
	if len(fullName) > maxFullNameLength {
		return nil, ErrFullNameLength
	}
	return &fullName, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := strings.TrimSpace(input.Email)
	if err := validateEmailAddress(email); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	fullName, err := normalizeFullName(input.FullName)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if err := s.ensureAvailable(ctx, "", username, email); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}
	hashToken, err := generateHashToken()
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		Username:     username,
		FullName:     fullName,
		PasswordHash: passwordHash,
		HashToken:    hashToken,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return user, nil
}

// ensureAvailable reports a conflict when another account already uses the
// username or email. excludeID skips the caller's own row on profile updates.
func (s *service) ensureAvailable(ctx context.Context, excludeID, username, email string) error {
	existingUser, err := s.repo.FindByUsernameOrEmail(ctx, username, email, excludeID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}
	if strings.EqualFold(existingUser.Email, email) {
		return ErrEmailAlreadyExists
	}
	return ErrUsernameAlreadyExists
}

func (s *service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) GetUserByLoginOrEmail(ctx context.Context, loginOrEmail string) (*User, error) {
	return s.repo.FindByLoginOrEmail(ctx, strings.TrimSpace(loginOrEmail))
}

func (s *service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	if update.Email == nil && update.Username == nil && update.FullName == nil {
		return nil, ErrNothingToUpdate
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if err := validateEmailAddress(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if update.FullName != nil {
		if user.FullName, err = normalizeFullName(*update.FullName); err != nil {
			return nil, err
		}
	}

	if update.Email != nil || update.Username != nil {
		if err := s.ensureAvailable(ctx, user.ID, user.Username, user.Email); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sebuszqo/BudgetManager/internal/logger"
	"github.com/sebuszqo/BudgetManager/internal/user"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret"
	testPassword = "correct-horse"
	marieID      = "5b0c3f0e-7a54-4c1e-9d43-2f6f1e8d9a01"
)

type fakeUsers struct {
	users map[string]*user.User
	err   error
}

func (f *fakeUsers) Register(context.Context, user.RegisterInput) (*user.User, error) {
	return nil, errors.New("not supported")
}

func (f *fakeUsers) UpdateProfile(context.Context, string, user.ProfileUpdate) (*user.User, error) {
	return nil, errors.New("not supported")
}

func (f *fakeUsers) GetUserByID(_ context.Context, userID string) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) GetUserByLoginOrEmail(_ context.Context, loginOrEmail string) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == loginOrEmail || strings.EqualFold(u.Email, loginOrEmail) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrUserNotFound
}

type fakeTwoFactorRepo struct {
	users   *fakeUsers
	secrets map[string]string
}

func (f *fakeTwoFactorRepo) SaveTwoFactorSecret(_ context.Context, userID, secret string) error {
	f.secrets[userID] = secret
	return nil
}

func (f *fakeTwoFactorRepo) GetTwoFactorSecret(_ context.Context, userID string) (string, error) {
	secret, ok := f.secrets[userID]
	if !ok {
		return "", ErrTwoFactorNotRegistered
	}
	return secret, nil
}

func (f *fakeTwoFactorRepo) EnableTwoFactor(_ context.Context, userID string) error {
	f.users.users[userID].TwoFactorEnabled = true
	return nil
}

func (f *fakeTwoFactorRepo) DisableTwoFactor(_ context.Context, userID string) error {
	f.users.users[userID].TwoFactorEnabled = false
	delete(f.secrets, userID)
	return nil
}

type fixture struct {
	service  Service
	users    *fakeUsers
	repo     *fakeTwoFactorRepo
	sessions *SessionManager
	jwt      *JWTManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	users := &fakeUsers{users: map[string]*user.User{
		marieID: {
			ID:           marieID,
			Email:        "marie@example.com",
			Username:     "marie",
			PasswordHash: string(hash),
			HashToken:    "hash-token",
			IsActive:     true,
		},
	}}
	repo := &fakeTwoFactorRepo{users: users, secrets: make(map[string]string)}
	sessions := NewSessionManager()
	jwtManager := NewJWTManager(testSecret, 10*time.Minute, time.Hour)
	service := NewAuthService(repo, users, sessions, jwtManager, NewAuthenticator("BudgetManager"), logger.Discard())
	return &fixture{service: service, users: users, repo: repo, sessions: sessions, jwt: jwtManager}
}

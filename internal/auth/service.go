package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sebuszqo/BudgetManager/internal/user"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound           = user.ErrUserNotFound
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUserInactive           = errors.New("account is inactive")
	ErrUser2FANotEnabled      = errors.New("two-factor authentication is not enabled")
	ErrUser2FAAlreadyEnabled  = errors.New("two-factor authentication is already enabled")
	ErrTwoFactorNotRegistered = errors.New("two-factor authentication has not been registered")
	ErrInvalid2FACode         = errors.New("invalid two-factor code")
)

type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult holds either issued tokens or, when a second factor is still
// required, the session token to present with the TOTP code.
type LoginResult struct {
	User         *user.User
	Tokens       *Tokens
	SessionToken string
}

func (r *LoginResult) TwoFactorRequired() bool {
	return r.Tokens == nil
}

type Service interface {
	Login(ctx context.Context, loginOrEmail, password string) (*LoginResult, error)
	VerifyTwoFactor(ctx context.Context, sessionToken, code string) (*LoginResult, error)
	RegisterTwoFactor(ctx context.Context, userID string) (string, error)
	VerifyTwoFactorRegistration(ctx context.Context, userID, code string) error
	DisableTwoFactor(ctx context.Context, userID, code string) error
	RefreshAccessToken(ctx context.Context, userID string) (*Tokens, error)
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
	JWTRefreshTokenMiddleware() func(http.Handler) http.Handler
}

type service struct {
	repo           TwoFactorRepository
	userService    user.Service
	sessionManager SessionManagerInterface
	jwtManager     JWTManagerInterface
	authenticator  TwoFactorAuthenticator
	log            logrus.FieldLogger
}

func NewAuthService(repo TwoFactorRepository, userService user.Service, sessionManager SessionManagerInterface,
	jwtManager JWTManagerInterface, authenticator TwoFactorAuthenticator, log logrus.FieldLogger) Service {
	return &service{
		repo:           repo,
		userService:    userService,
		sessionManager: sessionManager,
		jwtManager:     jwtManager,
		authenticator:  authenticator,
		log:            log,
	}
}

func doPasswordsMatch(hashedPassword, currPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(currPassword)) == nil
}

func (s *service) issueTokens(u *user.User) (*Tokens, error) {
	accessToken, err := s.jwtManager.GenerateAccessJWT(u.ID)
	if err != nil {
		return nil, fmt.Errorf("could not generate access token: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshJWT(u.ID, u.HashToken)
	if err != nil {
		return nil, fmt.Errorf("could not generate refresh token: %w", err)
	}
	return &Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) Login(ctx context.Context, loginOrEmail, password string) (*LoginResult, error) {
	existingUser, err := s.userService.GetUserByLoginOrEmail(ctx, loginOrEmail)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !doPasswordsMatch(existingUser.PasswordHash, password) {
		s.log.WithField("user_id", existingUser.ID).Warn("login rejected: wrong password")
		return nil, ErrInvalidCredentials
	}
	if !existingUser.IsActive {
		return nil, ErrUserInactive
	}

	if existingUser.TwoFactorEnabled {
		sessionToken, err := s.sessionManager.GenerateSessionToken(existingUser.ID, defaultSessionTokenDuration)
		if err != nil {
			return nil, err
		}
		return &LoginResult{User: existingUser, SessionToken: sessionToken}, nil
	}

	tokens, err := s.issueTokens(existingUser)
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", existingUser.ID).Info("user logged in")
	return &LoginResult{User: existingUser, Tokens: tokens}, nil
}

func (s *service) VerifyTwoFactor(ctx context.Context, sessionToken, code string) (*LoginResult, error) {
	userID, err := s.sessionManager.VerifySessionToken(sessionToken)
	if err != nil {
		return nil, err
	}
	existingUser, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !existingUser.TwoFactorEnabled {
		return nil, ErrUser2FANotEnabled
	}

	secret, err := s.repo.GetTwoFactorSecret(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.authenticator.VerifyCode(secret, code) {
		return nil, ErrInvalid2FACode
	}
	s.sessionManager.DeleteSessionToken(sessionToken)

	tokens, err := s.issueTokens(existingUser)
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", existingUser.ID).Info("user logged in with two-factor code")
	return &LoginResult{User: existingUser, Tokens: tokens}, nil
}

// RegisterTwoFactor stores a fresh TOTP secret and returns its otpauth URI.
// The factor stays disabled until VerifyTwoFactorRegistration succeeds.
func (s *service) RegisterTwoFactor(ctx context.Context, userID string) (string, error) {
	existingUser, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if existingUser.TwoFactorEnabled {
		return "", ErrUser2FAAlreadyEnabled
	}

	otpURI, secret, err := s.authenticator.GenerateSecret(existingUser.Email)
	if err != nil {
		return "", err
	}
	if err := s.repo.SaveTwoFactorSecret(ctx, userID, secret); err != nil {
		return "", err
	}
	return otpURI, nil
}

func (s *service) VerifyTwoFactorRegistration(ctx context.Context, userID, code string) error {
	existingUser, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if existingUser.TwoFactorEnabled {
		return ErrUser2FAAlreadyEnabled
	}

	secret, err := s.repo.GetTwoFactorSecret(ctx, userID)
	if err != nil {
		return err
	}
	if !s.authenticator.VerifyCode(secret, code) {
		return ErrInvalid2FACode
	}
	if err := s.repo.EnableTwoFactor(ctx, userID); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("two-factor authentication enabled")
	return nil
}

func (s *service) DisableTwoFactor(ctx context.Context, userID, code string) error {
	existingUser, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !existingUser.TwoFactorEnabled {
		return ErrUser2FANotEnabled
	}

	secret, err := s.repo.GetTwoFactorSecret(ctx, userID)
	if err != nil {
		return err
	}
	if !s.authenticator.VerifyCode(secret, code) {
		return ErrInvalid2FACode
	}
	if err := s.repo.DisableTwoFactor(ctx, userID); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("two-factor authentication disabled")
	return nil
}

// RefreshAccessToken expects the refresh token to be checked already by
// JWTRefreshTokenMiddleware.
func (s *service) RefreshAccessToken(ctx context.Context, userID string) (*Tokens, error) {
	existingUser, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !existingUser.IsActive {
		return nil, ErrUserInactive
	}
	return s.issueTokens(existingUser)
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, login := range []string{"marie", "MARIE@example.com"} {
		result, err := f.service.Login(ctx, login, testPassword)
		require.NoError(t, err, login)
		require.False(t, result.TwoFactorRequired())

		userID, err := f.jwt.ValidateAccessToken(result.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, marieID, userID)
		assert.NoError(t, f.jwt.ValidateRefreshToken(result.Tokens.RefreshToken, "hash-token"))
	}
}

func TestLogin_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Login(ctx, "marie", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.service.Login(ctx, "pierre", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	f.users.users[marieID].IsActive = false
	_, err = f.service.Login(ctx, "marie", testPassword)
	assert.ErrorIs(t, err, ErrUserInactive)

	f.users.err = errors.New("connection reset")
	_, err = f.service.Login(ctx, "marie", testPassword)
	assert.EqualError(t, err, "connection reset")
}

func TestTwoFactorLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.service.VerifyTwoFactorRegistration(ctx, marieID, "000000")
	assert.ErrorIs(t, err, ErrTwoFactorNotRegistered)

	otpURI, err := f.service.RegisterTwoFactor(ctx, marieID)
	require.NoError(t, err)
	assert.Contains(t, otpURI, "otpauth://totp/")
	assert.Contains(t, otpURI, "issuer=BudgetManager")
	secret := f.repo.secrets[marieID]
	require.NotEmpty(t, secret)

	assert.ErrorIs(t, f.service.VerifyTwoFactorRegistration(ctx, marieID, "not-a-code"), ErrInvalid2FACode)
	require.NoError(t, f.service.VerifyTwoFactorRegistration(ctx, marieID, currentCode(t, secret)))
	assert.True(t, f.users.users[marieID].TwoFactorEnabled)

	_, err = f.service.RegisterTwoFactor(ctx, marieID)
	assert.ErrorIs(t, err, ErrUser2FAAlreadyEnabled)

	result, err := f.service.Login(ctx, "marie", testPassword)
	require.NoError(t, err)
	require.True(t, result.TwoFactorRequired())
	require.NotEmpty(t, result.SessionToken)

	_, err = f.service.VerifyTwoFactor(ctx, result.SessionToken, "not-a-code")
	assert.ErrorIs(t, err, ErrInvalid2FACode)

	verified, err := f.service.VerifyTwoFactor(ctx, result.SessionToken, currentCode(t, secret))
	require.NoError(t, err)
	require.NotNil(t, verified.Tokens)

	// the session is single use
	_, err = f.service.VerifyTwoFactor(ctx, result.SessionToken, currentCode(t, secret))
	assert.ErrorIs(t, err, ErrInvalidSessionToken)

	assert.ErrorIs(t, f.service.DisableTwoFactor(ctx, marieID, "not-a-code"), ErrInvalid2FACode)
	require.NoError(t, f.service.DisableTwoFactor(ctx, marieID, currentCode(t, secret)))
	assert.False(t, f.users.users[marieID].TwoFactorEnabled)
	assert.Empty(t, f.repo.secrets)

	assert.ErrorIs(t, f.service.DisableTwoFactor(ctx, marieID, "123456"), ErrUser2FANotEnabled)
}

func TestRefreshAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tokens, err := f.service.RefreshAccessToken(ctx, marieID)
	require.NoError(t, err)
	userID, err := f.jwt.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, marieID, userID)

	_, err = f.service.RefreshAccessToken(ctx, "7d3c1b8e-2b7f-4f55-8f0a-9f1a6a7f0c11")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

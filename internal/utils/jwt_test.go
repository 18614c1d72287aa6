package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
)

func testJWTManager(t *testing.T, overrides func(*JWTManagerConfig)) *JWTManager {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	config := JWTManagerConfig{
		KeyID:              "test-key",
		Issuer:             "auth-service",
		Audience:           "synapse",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		ResetTokenExpiry:   5 * time.Minute,
		ServiceTokenExpiry: time.Minute,
	}
	if overrides != nil {
		overrides(&config)
	}

	return NewJWTManager(key, "test-refresh-secret-at-least-32-chars!!", config)
}

func testAccount() *domain.Account {
	return &domain.Account{
		ID:    "8c2e9a51-2f63-4e1e-b9e5-0b2f4f4d6a01",
		Email: "user@example.com",
		Role:  domain.RoleUser,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := testJWTManager(t, nil)

	token, err := manager.GenerateAccessToken(testAccount())
	require.NoError(t, err)

	claims, err := manager.VerifyAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "8c2e9a51-2f63-4e1e-b9e5-0b2f4f4d6a01", claims.AccountID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.False(t, claims.IsExpired())
}

func TestAccessTokenExpired(t *testing.T) {
	manager := testJWTManager(t, func(c *JWTManagerConfig) {
		c.AccessTokenExpiry = -time.Minute
	})

	token, err := manager.GenerateAccessToken(testAccount())
	require.NoError(t, err)

	_, err = manager.VerifyAccessToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAccessTokenTampered(t *testing.T) {
	manager := testJWTManager(t, nil)

	token, err := manager.GenerateAccessToken(testAccount())
	require.NoError(t, err)

	_, err = manager.VerifyAccessToken(token + "x")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAccessTokenFromOtherKeyRejected(t *testing.T) {
	manager := testJWTManager(t, nil)
	other := testJWTManager(t, nil)

	token, err := other.GenerateAccessToken(testAccount())
	require.NoError(t, err)

	_, err = manager.VerifyAccessToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	manager := testJWTManager(t, nil)

	token, err := manager.GenerateRefreshToken("account-1", "jti-1")
	require.NoError(t, err)

	accountID, jti, err := manager.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "account-1", accountID)
	assert.Equal(t, "jti-1", jti)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	manager := testJWTManager(t, nil)

	accessToken, err := manager.GenerateAccessToken(testAccount())
	require.NoError(t, err)

	_, _, err = manager.VerifyRefreshToken(accessToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAccessVerifyRejectsRefreshToken(t *testing.T) {
	manager := testJWTManager(t, nil)

	refreshToken, err := manager.GenerateRefreshToken("account-1", "jti-1")
	require.NoError(t, err)

	_, err = manager.VerifyAccessToken(refreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestResetTokenRoundTrip(t *testing.T) {
	manager := testJWTManager(t, nil)

	token, err := manager.GenerateResetToken("account-1", "user@example.com", "reset-jti")
	require.NoError(t, err)

	claims, err := manager.VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "account-1", claims.AccountID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "reset-jti", claims.JTI)
}

func TestResetTokenPurposeEnforced(t *testing.T) {
	manager := testJWTManager(t, nil)

	serviceToken, err := manager.GenerateServiceToken()
	require.NoError(t, err)

	_, err = manager.VerifyResetToken(serviceToken)
	assert.ErrorIs(t, err, domain.ErrWrongPurpose)

	accessToken, err := manager.GenerateAccessToken(testAccount())
	require.NoError(t, err)

	_, err = manager.VerifyResetToken(accessToken)
	require.Error(t, err)
	assert.True(t,
		errors.Is(err, domain.ErrWrongPurpose) || errors.Is(err, domain.ErrTokenInvalid),
		"unexpected error: %v", err,
	)
}

func TestResetTokenExpired(t *testing.T) {
	manager := testJWTManager(t, func(c *JWTManagerConfig) {
		c.ResetTokenExpiry = -time.Minute
	})

	token, err := manager.GenerateResetToken("account-1", "user@example.com", "reset-jti")
	require.NoError(t, err)

	_, err = manager.VerifyResetToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
)

// AuthResult carries a freshly issued session. The handler decides how each
// half travels: the access token in the body, the refresh token in a cookie.
type AuthResult struct {
	Account          *domain.Account
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  int
	RefreshExpiresIn int
}

// ResetResult carries a short-lived reset credential issued after a reset
// code was verified
type ResetResult struct {
	ResetToken string
	ExpiresIn  int
}

// issueTokenPair persists a refresh token record and signs both tokens of a
// session. The record is created first so the signed refresh token always has
// a database row backing its jti.
func (s *authService) issueTokenPair(ctx context.Context, account *domain.Account) (*AuthResult, error) {
	jti := uuid.New().String()
	refreshTTL := time.Duration(s.jwtManager.RefreshTokenExpirySeconds()) * time.Second

	record := &domain.RefreshToken{
		ID:        jti,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(refreshTTL),
	}
	if err := s.repos.RefreshToken.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(account.ID, jti)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResult{
		Account:          account,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresIn:  s.jwtManager.AccessTokenExpirySeconds(),
		RefreshExpiresIn: s.jwtManager.RefreshTokenExpirySeconds(),
	}, nil
}

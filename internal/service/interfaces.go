package service

import (
	"context"
	"time"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/dto"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/profile"
)

// AuthService defines the authentication business logic
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) error
	ResendVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	ValidateAccessToken(ctx context.Context, token string) (*domain.AccessClaims, error)

	ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordResetCode(ctx context.Context, email, code string) (*ResetResult, error)
	SetNewPassword(ctx context.Context, resetToken, newPassword string) error
}

// AdminService defines the administrative account operations
type AdminService interface {
	ListAccounts(ctx context.Context, page, limit int, query string) ([]*domain.Account, int, error)
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	UpdateStatus(ctx context.Context, accountID string, newStatus domain.Status, performedBy string) (*domain.Account, error)
	StatusLogs(ctx context.Context, accountID, cursor string, limit int) ([]*domain.StatusLog, error)
}

// EventPublisher emits domain events after state changes commit. A publish
// failure never rolls back the flow that triggered it.
type EventPublisher interface {
	AccountRegistered(ctx context.Context, email, username, code string) error
	PasswordResetRequested(ctx context.Context, email, code string) error
	PasswordChanged(ctx context.Context, email string) error
}

// TokenBlacklist is the fast-path revocation cache keyed by jti. The database
// revoked flag stays authoritative; a cache miss only costs a row lookup.
type TokenBlacklist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// ProfileProvisioner creates the companion profile record during registration
type ProfileProvisioner interface {
	Enabled() bool
	CreateProfile(ctx context.Context, accountID string, fields profile.Fields) (string, error)
}

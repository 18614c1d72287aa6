package repository

import (
	"context"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
)

// AccountRepository defines methods for account operations
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// Delete removes an account. Deleting a missing account is a no-op so the
	// registration rollback can be retried safely.
	Delete(ctx context.Context, id string) error
	UpdateUsername(ctx context.Context, id, username string) error
	// UpdatePasswordAndRevokeSessions updates the password hash and revokes
	// every outstanding refresh token for the account in one transaction.
	UpdatePasswordAndRevokeSessions(ctx context.Context, id, passwordHash string) error
	// UpdateStatus transitions the account status and writes the audit log row
	// in one transaction. The update is conditional on the expected old status.
	UpdateStatus(ctx context.Context, id string, oldStatus, newStatus domain.Status, performedBy string) error
	List(ctx context.Context, page, limit int, query string) ([]*domain.Account, int, error)
	StatusLogs(ctx context.Context, accountID, cursor string, limit int) ([]*domain.StatusLog, error)
}

// RefreshTokenRepository defines methods for refresh token operations
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByID(ctx context.Context, id string) (*domain.RefreshToken, error)
	// Revoke conditionally flips the revoked flag and reports whether this
	// call won the flip. Revoking an already revoked token is not an error.
	Revoke(ctx context.Context, id string) (bool, error)
	RevokeAllForAccount(ctx context.Context, accountID string) error
	DeleteExpired(ctx context.Context) error
}

// VerificationCodeRepository defines methods for one-time code operations
type VerificationCodeRepository interface {
	Create(ctx context.Context, code *domain.VerificationCode) error
	// FindValid returns the newest unused, unexpired code for the account and
	// purpose, or ErrNotFound.
	FindValid(ctx context.Context, accountID string, purpose domain.CodePurpose) (*domain.VerificationCode, error)
	InvalidateAll(ctx context.Context, accountID string, purpose domain.CodePurpose) error
	// MarkUsed conditionally consumes the code; ErrAlreadyUsed when another
	// caller consumed it first.
	MarkUsed(ctx context.Context, id string) error
	// ConsumeAndActivate marks the code used and activates the account in one
	// transaction.
	ConsumeAndActivate(ctx context.Context, codeID, accountID string) error
}

// ResetTokenRepository defines methods for password reset credential records
type ResetTokenRepository interface {
	Create(ctx context.Context, token *domain.PasswordResetToken) error
	GetByID(ctx context.Context, id string) (*domain.PasswordResetToken, error)
	// ConsumeAndSetPassword marks the reset record used, updates the password
	// hash and revokes all refresh tokens for the account in one transaction.
	// Returns ErrAlreadyUsed when the record was consumed concurrently.
	ConsumeAndSetPassword(ctx context.Context, tokenID, accountID, passwordHash string) error
}

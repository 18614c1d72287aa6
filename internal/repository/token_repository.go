package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/pkg/database"
)

// refreshTokenRepository implements RefreshTokenRepository interface
type refreshTokenRepository struct {
	db *database.Postgres
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *database.Postgres) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create creates a new refresh token record. The row id doubles as the jti
// claim of the signed token.
func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, account_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		token.ID,
		token.AccountID,
		token.ExpiresAt,
		token.Revoked,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	return nil
}

// GetByID retrieves a refresh token record by its id (jti)
func (r *refreshTokenRepository) GetByID(ctx context.Context, id string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, account_id, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE id = $1
	`

	token := &domain.RefreshToken{}
	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&token.ID,
		&token.AccountID,
		&token.ExpiresAt,
		&token.Revoked,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("refresh token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return token, nil
}

// Revoke conditionally flips the revoked flag. The WHERE clause on the flag
// is the arbiter for concurrent rotation: exactly one caller observes
// won=true for a given token.
func (r *refreshTokenRepository) Revoke(ctx context.Context, id string) (bool, error) {
	query := `UPDATE refresh_tokens SET revoked = true WHERE id = $1 AND revoked = false`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// RevokeAllForAccount revokes every live refresh token owned by the account
func (r *refreshTokenRepository) RevokeAllForAccount(ctx context.Context, accountID string) error {
	query := `UPDATE refresh_tokens SET revoked = true WHERE account_id = $1 AND revoked = false`

	if _, err := r.db.DB.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens for account: %w", err)
	}

	return nil
}

// DeleteExpired garbage-collects refresh tokens past their expiry
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) error {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	if _, err := r.db.DB.ExecContext(ctx, query, time.Now()); err != nil {
		return fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	return nil
}

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

// resetTokenRepository implements ResetTokenRepository interface
type resetTokenRepository struct {
	db *database.Postgres
}

// NewResetTokenRepository creates a new reset token repository
func NewResetTokenRepository(db *database.Postgres) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

// Create stores the one-time record backing a reset credential. The row id is
// the jti claim of the signed reset token.
func (r *resetTokenRepository) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, account_id, expires_at, used, created_at)
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
		token.Used,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	return nil
}

// GetByID retrieves a reset token record by its id (jti)
func (r *resetTokenRepository) GetByID(ctx context.Context, id string) (*domain.PasswordResetToken, error) {
	query := `
		SELECT id, account_id, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE id = $1
	`

	token := &domain.PasswordResetToken{}
	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&token.ID,
		&token.AccountID,
		&token.ExpiresAt,
		&token.Used,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reset token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return token, nil
}

// ConsumeAndSetPassword marks the reset record used, updates the password
// hash and revokes all refresh tokens for the account in one transaction. The
// conditional consume makes the reset credential single-use under concurrency.
func (r *resetTokenRepository) ConsumeAndSetPassword(ctx context.Context, tokenID, accountID, passwordHash string) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = true WHERE id = $1 AND used = false`,
		tokenID,
	)
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reset token already consumed: %w", ErrAlreadyUsed)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		accountID, passwordHash, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account with id %s not found: %w", accountID, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE account_id = $1 AND revoked = false`,
		accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit password reset: %w", err)
	}

	return nil
}

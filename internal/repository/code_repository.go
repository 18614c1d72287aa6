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

// verificationCodeRepository implements VerificationCodeRepository interface
type verificationCodeRepository struct {
	db *database.Postgres
}

// NewVerificationCodeRepository creates a new verification code repository
func NewVerificationCodeRepository(db *database.Postgres) VerificationCodeRepository {
	return &verificationCodeRepository{db: db}
}

// Create stores the hash of a freshly issued one-time code
func (r *verificationCodeRepository) Create(ctx context.Context, code *domain.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (id, account_id, code_hash, purpose, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if code.ID == "" {
		code.ID = uuid.New().String()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		code.ID,
		code.AccountID,
		code.CodeHash,
		code.Purpose,
		code.ExpiresAt,
		code.Used,
		code.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create verification code: %w", err)
	}

	return nil
}

// FindValid returns the newest unused, unexpired code for the account and
// purpose. This is the authoritative "current valid credential" lookup.
func (r *verificationCodeRepository) FindValid(ctx context.Context, accountID string, purpose domain.CodePurpose) (*domain.VerificationCode, error) {
	query := `
		SELECT id, account_id, code_hash, purpose, expires_at, used, created_at
		FROM verification_codes
		WHERE account_id = $1 AND purpose = $2 AND used = false AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	code := &domain.VerificationCode{}
	err := r.db.DB.QueryRowContext(ctx, query, accountID, purpose, time.Now()).Scan(
		&code.ID,
		&code.AccountID,
		&code.CodeHash,
		&code.Purpose,
		&code.ExpiresAt,
		&code.Used,
		&code.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no valid verification code: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find verification code: %w", err)
	}

	return code, nil
}

// InvalidateAll marks every live code for the account and purpose as used, so
// a freshly issued code is the only valid one
func (r *verificationCodeRepository) InvalidateAll(ctx context.Context, accountID string, purpose domain.CodePurpose) error {
	query := `
		UPDATE verification_codes
		SET used = true
		WHERE account_id = $1 AND purpose = $2 AND used = false AND expires_at > $3
	`

	if _, err := r.db.DB.ExecContext(ctx, query, accountID, purpose, time.Now()); err != nil {
		return fmt.Errorf("failed to invalidate verification codes: %w", err)
	}

	return nil
}

// MarkUsed consumes a single code by id. The update is conditional on the
// code still being unused, so of two concurrent consumers exactly one wins
// and the other observes ErrAlreadyUsed.
func (r *verificationCodeRepository) MarkUsed(ctx context.Context, id string) error {
	query := `UPDATE verification_codes SET used = true WHERE id = $1 AND used = false`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark verification code used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("verification code %s already consumed or missing: %w", id, ErrAlreadyUsed)
	}

	return nil
}

// ConsumeAndActivate marks the code used and activates the account in one
// transaction, so a crash can never leave the code consumed but the account
// still pending.
func (r *verificationCodeRepository) ConsumeAndActivate(ctx context.Context, codeID, accountID string) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE verification_codes SET used = true WHERE id = $1 AND used = false`,
		codeID,
	)
	if err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("verification code already consumed: %w", ErrAlreadyUsed)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts
		 SET is_email_verified = true, status = $2, verified_at = $3, updated_at = $3
		 WHERE id = $1`,
		accountID, domain.StatusActive, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to activate account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verification: %w", err)
	}

	return nil
}

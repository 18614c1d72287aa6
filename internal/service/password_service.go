package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/repository"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/utils"
)

// ChangePassword replaces the password of an authenticated account after
// re-proving the current one. Every refresh token is revoked in the same
// transaction as the hash update.
func (s *authService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, account.PasswordHash) {
		return domain.ErrIncorrectPassword
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repos.Account.UpdatePasswordAndRevokeSessions(ctx, account.ID, newHash); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info("Password changed, all sessions revoked", zap.String("account_id", account.ID))

	if err := s.publisher.PasswordChanged(ctx, account.Email); err != nil {
		s.logger.Warn("Failed to publish password change event",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	return nil
}

// RequestPasswordReset queues a reset code for delivery. An unknown email is
// a silent success so the endpoint cannot be used to probe for accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.repos.Account.GetByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	code, err := s.issueCode(ctx, account.ID, domain.PurposeResetPassword, s.config.ResetCodeTTL)
	if err != nil {
		return err
	}

	if err := s.publisher.PasswordResetRequested(ctx, account.Email, code); err != nil {
		s.logger.Warn("Failed to publish reset request event",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	return nil
}

// VerifyPasswordResetCode exchanges a valid reset code for a short-lived
// reset credential bound to a single-use database record
func (s *authService) VerifyPasswordResetCode(ctx context.Context, email, code string) (*ResetResult, error) {
	account, err := s.getByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		return nil, err
	}

	record, err := s.repos.VerificationCode.FindValid(ctx, account.ID, domain.PurposeResetPassword)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCodeExpiredOrMissing
		}
		return nil, fmt.Errorf("failed to look up reset code: %w", err)
	}

	if !utils.VerifyCodeHash(code, record.CodeHash) {
		return nil, domain.ErrCodeMismatch
	}

	// The conditional consume is the arbiter under concurrency: only the
	// caller that flips the used flag mints a reset credential.
	if err := s.repos.VerificationCode.MarkUsed(ctx, record.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyUsed) {
			return nil, domain.ErrCodeExpiredOrMissing
		}
		return nil, fmt.Errorf("failed to consume reset code: %w", err)
	}

	resetTTL := time.Duration(s.jwtManager.ResetTokenExpirySeconds()) * time.Second
	resetRecord := &domain.PasswordResetToken{
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(resetTTL),
	}
	if err := s.repos.ResetToken.Create(ctx, resetRecord); err != nil {
		return nil, fmt.Errorf("failed to store reset record: %w", err)
	}

	resetToken, err := s.jwtManager.GenerateResetToken(account.ID, account.Email, resetRecord.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}

	return &ResetResult{
		ResetToken: resetToken,
		ExpiresIn:  s.jwtManager.ResetTokenExpirySeconds(),
	}, nil
}

// SetNewPassword completes the reset flow. The reset credential is consumed
// exactly once; the password update and the revocation of every session
// happen in the same transaction.
func (s *authService) SetNewPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.jwtManager.VerifyResetToken(resetToken)
	if err != nil {
		return err
	}

	record, err := s.repos.ResetToken.GetByID(ctx, claims.JTI)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrTokenInvalid
		}
		return fmt.Errorf("failed to look up reset record: %w", err)
	}
	if record.Used {
		return domain.ErrTokenRevoked
	}
	if !time.Now().Before(record.ExpiresAt) {
		return fmt.Errorf("%w: expired", domain.ErrTokenInvalid)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repos.ResetToken.ConsumeAndSetPassword(ctx, record.ID, record.AccountID, newHash); err != nil {
		if errors.Is(err, repository.ErrAlreadyUsed) {
			return domain.ErrTokenRevoked
		}
		return fmt.Errorf("failed to set new password: %w", err)
	}

	s.logger.Info("Password reset completed, all sessions revoked",
		zap.String("account_id", record.AccountID),
	)

	if err := s.publisher.PasswordChanged(ctx, claims.Email); err != nil {
		s.logger.Warn("Failed to publish password change event",
			zap.String("account_id", record.AccountID),
			zap.Error(err),
		)
	}

	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/repository"
)

type adminService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewAdminService creates the administrative account service
func NewAdminService(repos *repository.Repositories, logger *zap.Logger) AdminService {
	return &adminService{repos: repos, logger: logger}
}

// ListAccounts returns a page of accounts, optionally filtered by an email or
// username substring
func (s *adminService) ListAccounts(ctx context.Context, page, limit int, query string) ([]*domain.Account, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	accounts, total, err := s.repos.Account.List(ctx, page, limit, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, total, nil
}

// GetAccount loads a single account by id
func (s *adminService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.repos.Account.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// UpdateStatus transitions an account through the status state machine and
// records who performed the change. BANNED is reachable from any state on
// this path and may be lifted back to ACTIVE here; every other transition
// must be in the allowed table. The update is conditional on the status the
// admin saw, so concurrent changes fail instead of silently clobbering each
// other.
func (s *adminService) UpdateStatus(ctx context.Context, accountID string, newStatus domain.Status, performedBy string) (*domain.Account, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Status == newStatus {
		return nil, fmt.Errorf("%w: account already %s", domain.ErrInvalidTransition, newStatus)
	}

	// The admin path may ban from any state and may lift a ban back to
	// ACTIVE; everything else goes through the regular transition table.
	banning := newStatus == domain.StatusBanned
	unbanning := account.Status == domain.StatusBanned && newStatus == domain.StatusActive
	if !banning && !unbanning && !domain.CanTransition(account.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, account.Status, newStatus)
	}

	if err := s.repos.Account.UpdateStatus(ctx, accountID, account.Status, newStatus, performedBy); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: status changed concurrently", domain.ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	// A ban kills every live session immediately; the revoked flag blocks any
	// refresh the banned account still holds.
	if newStatus == domain.StatusBanned {
		if err := s.repos.RefreshToken.RevokeAllForAccount(ctx, accountID); err != nil {
			s.logger.Error("Failed to revoke sessions of banned account",
				zap.String("account_id", accountID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Account status changed",
		zap.String("account_id", accountID),
		zap.String("old_status", string(account.Status)),
		zap.String("new_status", string(newStatus)),
		zap.String("performed_by", performedBy),
	)

	account.Status = newStatus
	return account, nil
}

// StatusLogs returns the audit trail of status changes for an account, newest
// first, keyed by an opaque cursor
func (s *adminService) StatusLogs(ctx context.Context, accountID, cursor string, limit int) ([]*domain.StatusLog, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	logs, err := s.repos.Account.StatusLogs(ctx, accountID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load status logs: %w", err)
	}
	return logs, nil
}

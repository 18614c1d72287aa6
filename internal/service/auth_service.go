package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/dto"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/profile"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/repository"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/utils"
)

// AuthServiceConfig carries the one-time code lifetimes
type AuthServiceConfig struct {
	VerificationCodeTTL time.Duration
	ResetCodeTTL        time.Duration
}

type authService struct {
	repos      *repository.Repositories
	hasher     *utils.PasswordHasher
	jwtManager *utils.JWTManager
	blacklist  TokenBlacklist
	publisher  EventPublisher
	profiles   ProfileProvisioner
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates the authentication service
func NewAuthService(
	repos *repository.Repositories,
	hasher *utils.PasswordHasher,
	jwtManager *utils.JWTManager,
	blacklist TokenBlacklist,
	publisher EventPublisher,
	profiles ProfileProvisioner,
	config AuthServiceConfig,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repos:      repos,
		hasher:     hasher,
		jwtManager: jwtManager,
		blacklist:  blacklist,
		publisher:  publisher,
		profiles:   profiles,
		config:     config,
		logger:     logger,
	}
}

// Register creates a PENDING account, provisions the companion profile and
// queues a verification code for delivery. Profile provisioning failure rolls
// the account back so the email is immediately reusable.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) error {
	email := utils.SanitizeEmail(req.Email)

	_, err := s.repos.Account.GetByEmail(ctx, email)
	if err == nil {
		return domain.ErrEmailInUse
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check existing account: %w", err)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	username := req.Username
	account := &domain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     &username,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		Status:       domain.StatusPending,
	}

	if err := s.repos.Account.Create(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return domain.ErrEmailInUse
		case errors.Is(err, repository.ErrDuplicateUsername):
			return domain.ErrUsernameInUse
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	if s.profiles.Enabled() {
		profileID, provErr := s.profiles.CreateProfile(ctx, account.ID, profile.Fields{
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Gender:    req.Gender,
		})
		if provErr != nil {
			if delErr := s.repos.Account.Delete(ctx, account.ID); delErr != nil {
				s.logger.Error("Failed to roll back account after profile provisioning failure, manual reconciliation needed",
					zap.String("account_id", account.ID),
					zap.Error(delErr),
				)
			}
			return fmt.Errorf("%w: %v", domain.ErrProfileProvisioning, provErr)
		}
		s.logger.Info("Provisioned profile for new account",
			zap.String("account_id", account.ID),
			zap.String("profile_id", profileID),
		)
	}

	code, err := s.issueCode(ctx, account.ID, domain.PurposeVerifyEmail, s.config.VerificationCodeTTL)
	if err != nil {
		return err
	}

	if err := s.publisher.AccountRegistered(ctx, account.Email, req.Username, code); err != nil {
		s.logger.Warn("Failed to publish registration event",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	return nil
}

// ResendVerification invalidates any outstanding verification codes and
// queues a fresh one
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	account, err := s.getByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		return err
	}
	if account.IsEmailVerified {
		return domain.ErrAlreadyVerified
	}

	code, err := s.issueCode(ctx, account.ID, domain.PurposeVerifyEmail, s.config.VerificationCodeTTL)
	if err != nil {
		return err
	}

	if err := s.publisher.AccountRegistered(ctx, account.Email, derefUsername(account), code); err != nil {
		s.logger.Warn("Failed to publish verification resend event",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	return nil
}

// VerifyEmail consumes a verification code and activates the account. A
// second verification of an already verified account is a no-op.
func (s *authService) VerifyEmail(ctx context.Context, email, code string) error {
	account, err := s.getByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		return err
	}
	if account.IsEmailVerified {
		return nil
	}

	record, err := s.repos.VerificationCode.FindValid(ctx, account.ID, domain.PurposeVerifyEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrCodeExpiredOrMissing
		}
		return fmt.Errorf("failed to look up verification code: %w", err)
	}

	if !utils.VerifyCodeHash(code, record.CodeHash) {
		return domain.ErrCodeMismatch
	}

	if err := s.repos.VerificationCode.ConsumeAndActivate(ctx, record.ID, account.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyUsed) {
			return domain.ErrCodeExpiredOrMissing
		}
		return fmt.Errorf("failed to activate account: %w", err)
	}

	s.logger.Info("Account activated", zap.String("account_id", account.ID))
	return nil
}

// Login verifies credentials and issues a token pair. The caller maps every
// failure kind except ErrEmailNotVerified to one uniform response so the
// endpoint does not leak which accounts exist.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.getByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, domain.ErrIncorrectPassword
	}
	if !account.IsEmailVerified {
		return nil, domain.ErrEmailNotVerified
	}
	if account.Status == domain.StatusSuspended || account.Status == domain.StatusBanned {
		return nil, domain.ErrAccountDisabled
	}

	result, err := s.issueTokenPair(ctx, account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Login succeeded", zap.String("account_id", account.ID))
	return result, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. The conditional revoke arbitrates concurrent use of the
// same token, so exactly one caller wins.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	accountID, jti, err := s.jwtManager.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	// Fast path: a cached revocation saves the row lookup. Cache errors fall
	// through to the database, which stays authoritative.
	if revoked, err := s.blacklist.Contains(ctx, jti); err != nil {
		s.logger.Warn("Revocation cache lookup failed", zap.Error(err))
	} else if revoked {
		return nil, domain.ErrTokenRevoked
	}

	record, err := s.repos.RefreshToken.GetByID(ctx, jti)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	now := time.Now()
	if record.Revoked {
		return nil, domain.ErrTokenRevoked
	}
	if !now.Before(record.ExpiresAt) {
		return nil, fmt.Errorf("%w: expired", domain.ErrTokenInvalid)
	}

	won, err := s.repos.RefreshToken.Revoke(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !won {
		// Lost the rotation race; the token was already exchanged.
		return nil, domain.ErrTokenRevoked
	}
	s.cacheRevocation(ctx, jti, record.ExpiresAt)

	account, err := s.repos.Account.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account.Status == domain.StatusSuspended || account.Status == domain.StatusBanned {
		return nil, domain.ErrAccountDisabled
	}

	return s.issueTokenPair(ctx, account)
}

// Logout revokes the presented refresh token. Revoking an already revoked
// token succeeds so repeated logouts are harmless.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	_, jti, err := s.jwtManager.VerifyRefreshToken(refreshToken)
	if err != nil {
		return err
	}

	record, err := s.repos.RefreshToken.GetByID(ctx, jti)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if _, err := s.repos.RefreshToken.Revoke(ctx, jti); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	s.cacheRevocation(ctx, jti, record.ExpiresAt)

	return nil
}

// GetAccount loads the authenticated account
func (s *authService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.repos.Account.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// ValidateAccessToken verifies an access token and returns its claims
func (s *authService) ValidateAccessToken(_ context.Context, token string) (*domain.AccessClaims, error) {
	return s.jwtManager.VerifyAccessToken(token)
}

// issueCode invalidates outstanding codes for the purpose and stores a fresh
// one. The raw code is returned for out-of-band delivery and never persisted.
func (s *authService) issueCode(ctx context.Context, accountID string, purpose domain.CodePurpose, ttl time.Duration) (string, error) {
	if err := s.repos.VerificationCode.InvalidateAll(ctx, accountID, purpose); err != nil {
		return "", fmt.Errorf("failed to invalidate previous codes: %w", err)
	}

	code, err := utils.GenerateCode()
	if err != nil {
		return "", err
	}

	record := &domain.VerificationCode{
		ID:        uuid.New().String(),
		AccountID: accountID,
		CodeHash:  utils.HashCode(code),
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.repos.VerificationCode.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	return code, nil
}

func (s *authService) getByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.repos.Account.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// cacheRevocation mirrors a database revocation into the fast-path cache.
// Failure is logged only; the revoked flag already blocks reuse.
func (s *authService) cacheRevocation(ctx context.Context, jti string, expiresAt time.Time) {
	if err := s.blacklist.Add(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Warn("Failed to cache token revocation",
			zap.String("jti", jti),
			zap.Error(err),
		)
	}
}

func derefUsername(account *domain.Account) string {
	if account.Username == nil {
		return ""
	}
	return *account.Username
}

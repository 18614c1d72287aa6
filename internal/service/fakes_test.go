package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/profile"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/repository"
)

// fakeState is the shared in-memory backing store for the fake repositories.
// All mutations take the single lock so the concurrency tests exercise the
// same winner-takes-all semantics as the conditional SQL updates.
type fakeState struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	refresh  map[string]*domain.RefreshToken
	codes    map[string]*domain.VerificationCode
	resets   map[string]*domain.PasswordResetToken
	logs     []*domain.StatusLog
}

func newFakeState() *fakeState {
	return &fakeState{
		accounts: make(map[string]*domain.Account),
		refresh:  make(map[string]*domain.RefreshToken),
		codes:    make(map[string]*domain.VerificationCode),
		resets:   make(map[string]*domain.PasswordResetToken),
	}
}

func newFakeRepositories(state *fakeState) *repository.Repositories {
	return &repository.Repositories{
		Account:          &fakeAccountRepo{state},
		RefreshToken:     &fakeRefreshTokenRepo{state},
		VerificationCode: &fakeCodeRepo{state},
		ResetToken:       &fakeResetTokenRepo{state},
	}
}

type fakeAccountRepo struct{ s *fakeState }

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	for _, existing := range r.s.accounts {
		if existing.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
		if account.Username != nil && existing.Username != nil && *existing.Username == *account.Username {
			return repository.ErrDuplicateUsername
		}
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	copied := *account
	r.s.accounts[account.ID] = &copied
	return nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, account := range r.s.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.accounts, id)
	return nil
}

func (r *fakeAccountRepo) UpdateUsername(_ context.Context, id, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Username = &username
	return nil
}

func (r *fakeAccountRepo) UpdatePasswordAndRevokeSessions(_ context.Context, id, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	for _, token := range r.s.refresh {
		if token.AccountID == id {
			token.Revoked = true
		}
	}
	return nil
}

func (r *fakeAccountRepo) UpdateStatus(_ context.Context, id string, oldStatus, newStatus domain.Status, performedBy string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if account.Status != oldStatus {
		return repository.ErrStaleStatus
	}
	account.Status = newStatus
	r.s.logs = append(r.s.logs, &domain.StatusLog{
		ID:          uuid.New().String(),
		AccountID:   id,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		PerformedBy: performedBy,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (r *fakeAccountRepo) List(_ context.Context, page, limit int, _ string) ([]*domain.Account, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var accounts []*domain.Account
	for _, account := range r.s.accounts {
		copied := *account
		accounts = append(accounts, &copied)
	}
	total := len(accounts)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return accounts[start:end], total, nil
}

func (r *fakeAccountRepo) StatusLogs(_ context.Context, accountID, _ string, limit int) ([]*domain.StatusLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var logs []*domain.StatusLog
	for _, log := range r.s.logs {
		if log.AccountID == accountID {
			logs = append(logs, log)
		}
	}
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

type fakeRefreshTokenRepo struct{ s *fakeState }

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *domain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	token.CreatedAt = time.Now()
	copied := *token
	r.s.refresh[token.ID] = &copied
	return nil
}

func (r *fakeRefreshTokenRepo) GetByID(_ context.Context, id string) (*domain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token, ok := r.s.refresh[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token, ok := r.s.refresh[id]
	if !ok || token.Revoked {
		return false, nil
	}
	token.Revoked = true
	return true, nil
}

func (r *fakeRefreshTokenRepo) RevokeAllForAccount(_ context.Context, accountID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, token := range r.s.refresh {
		if token.AccountID == accountID {
			token.Revoked = true
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for id, token := range r.s.refresh {
		if now.After(token.ExpiresAt) {
			delete(r.s.refresh, id)
		}
	}
	return nil
}

type fakeCodeRepo struct{ s *fakeState }

func (r *fakeCodeRepo) Create(_ context.Context, code *domain.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if code.ID == "" {
		code.ID = uuid.New().String()
	}
	code.CreatedAt = time.Now()
	copied := *code
	r.s.codes[code.ID] = &copied
	return nil
}

func (r *fakeCodeRepo) FindValid(_ context.Context, accountID string, purpose domain.CodePurpose) (*domain.VerificationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var newest *domain.VerificationCode
	now := time.Now()
	for _, code := range r.s.codes {
		if code.AccountID != accountID || code.Purpose != purpose || code.Used || !now.Before(code.ExpiresAt) {
			continue
		}
		if newest == nil || code.CreatedAt.After(newest.CreatedAt) {
			newest = code
		}
	}
	if newest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *newest
	return &copied, nil
}

func (r *fakeCodeRepo) InvalidateAll(_ context.Context, accountID string, purpose domain.CodePurpose) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, code := range r.s.codes {
		if code.AccountID == accountID && code.Purpose == purpose {
			code.Used = true
		}
	}
	return nil
}

func (r *fakeCodeRepo) MarkUsed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code, ok := r.s.codes[id]
	if !ok || code.Used {
		return repository.ErrAlreadyUsed
	}
	code.Used = true
	return nil
}

func (r *fakeCodeRepo) ConsumeAndActivate(_ context.Context, codeID, accountID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code, ok := r.s.codes[codeID]
	if !ok {
		return repository.ErrNotFound
	}
	if code.Used {
		return repository.ErrAlreadyUsed
	}
	code.Used = true

	account, ok := r.s.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	account.IsEmailVerified = true
	account.Status = domain.StatusActive
	account.VerifiedAt = &now
	return nil
}

type fakeResetTokenRepo struct{ s *fakeState }

func (r *fakeResetTokenRepo) Create(_ context.Context, token *domain.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	token.CreatedAt = time.Now()
	copied := *token
	r.s.resets[token.ID] = &copied
	return nil
}

func (r *fakeResetTokenRepo) GetByID(_ context.Context, id string) (*domain.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token, ok := r.s.resets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *fakeResetTokenRepo) ConsumeAndSetPassword(_ context.Context, tokenID, accountID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token, ok := r.s.resets[tokenID]
	if !ok {
		return repository.ErrNotFound
	}
	if token.Used {
		return repository.ErrAlreadyUsed
	}
	token.Used = true

	account, ok := r.s.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	for _, refresh := range r.s.refresh {
		if refresh.AccountID == accountID {
			refresh.Revoked = true
		}
	}
	return nil
}

// fakePublisher records published events so tests can read delivered codes
type fakePublisher struct {
	mu               sync.Mutex
	registered       []registeredEvent
	resetRequests    []resetRequestedEvent
	passwordChanges  []string
	failNextPublish  bool
	publishFailCount int
}

type registeredEvent struct {
	email    string
	username string
	code     string
}

type resetRequestedEvent struct {
	email string
	code  string
}

type errPublishFailed struct{}

func (errPublishFailed) Error() string { return "publish failed" }

func (p *fakePublisher) AccountRegistered(_ context.Context, email, username, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNextPublish {
		p.failNextPublish = false
		p.publishFailCount++
		return errPublishFailed{}
	}
	p.registered = append(p.registered, registeredEvent{email: email, username: username, code: code})
	return nil
}

func (p *fakePublisher) PasswordResetRequested(_ context.Context, email, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetRequests = append(p.resetRequests, resetRequestedEvent{email: email, code: code})
	return nil
}

func (p *fakePublisher) PasswordChanged(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwordChanges = append(p.passwordChanges, email)
	return nil
}

func (p *fakePublisher) lastRegisteredCode() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.registered) == 0 {
		return ""
	}
	return p.registered[len(p.registered)-1].code
}

func (p *fakePublisher) lastResetCode() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.resetRequests) == 0 {
		return ""
	}
	return p.resetRequests[len(p.resetRequests)-1].code
}

// fakeBlacklist is an in-memory jti revocation cache
type fakeBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{entries: make(map[string]time.Time)}
}

func (b *fakeBlacklist) Add(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (b *fakeBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	expiry, ok := b.entries[jti]
	return ok && time.Now().Before(expiry), nil
}

// fakeProfiles stands in for the external profile service
type fakeProfiles struct {
	mu       sync.Mutex
	enabled  bool
	failWith error
	created  []profile.Fields
}

func (p *fakeProfiles) Enabled() bool { return p.enabled }

func (p *fakeProfiles) CreateProfile(_ context.Context, _ string, fields profile.Fields) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return "", p.failWith
	}
	p.created = append(p.created, fields)
	return uuid.New().String(), nil
}

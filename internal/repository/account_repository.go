package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/pkg/database"
)

const accountColumns = `id, email, username, password_hash, is_email_verified, role, status, verified_at, created_at, updated_at`

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *database.Postgres
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.Postgres) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account in the database
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, username, password_hash, is_email_verified, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.Role == "" {
		account.Role = domain.RoleUser
	}
	if account.Status == "" {
		account.Status = domain.StatusPending
	}

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.IsEmailVerified,
		account.Role,
		account.Status,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			if strings.Contains(pqErr.Constraint, "username") {
				return fmt.Errorf("account with username already exists: %w", ErrDuplicateUsername)
			}
			return fmt.Errorf("account with email %s already exists: %w", account.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByEmail retrieves an account by email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE email = $1`, accountColumns)

	account, err := r.scanAccount(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, accountColumns)

	account, err := r.scanAccount(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// Delete removes an account. Used as the compensating action when profile
// provisioning fails during registration; deleting a missing row is a no-op.
func (r *accountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return nil
}

// UpdateUsername updates the cached username copied from the profile service
func (r *accountRepository) UpdateUsername(ctx context.Context, id, username string) error {
	query := `UPDATE accounts SET username = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id, username, time.Now())
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("account with username already exists: %w", ErrDuplicateUsername)
		}
		return fmt.Errorf("failed to update username: %w", err)
	}

	return requireRowsAffected(result, id)
}

// UpdatePasswordAndRevokeSessions updates the password hash and revokes every
// outstanding refresh token for the account in a single transaction, so a
// crash can never leave a changed password with live sessions.
func (r *accountRepository) UpdatePasswordAndRevokeSessions(ctx context.Context, id, passwordHash string) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := requireRowsAffected(result, id); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE account_id = $1 AND revoked = false`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit password update: %w", err)
	}

	return nil
}

// UpdateStatus transitions the account status and writes the audit log row in
// one transaction. The UPDATE is conditional on the expected old status so
// concurrent admin actions cannot interleave.
func (r *accountRepository) UpdateStatus(ctx context.Context, id string, oldStatus, newStatus domain.Status, performedBy string) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE accounts SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, oldStatus, newStatus, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %s is not in status %s: %w", id, oldStatus, ErrStaleStatus)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO account_status_logs (id, account_id, old_status, new_status, performed_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), id, oldStatus, newStatus, performedBy, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to write status log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}

	return nil
}

// List returns a page of accounts matching the optional email/username search
// together with the total match count
func (r *accountRepository) List(ctx context.Context, page, limit int, query string) ([]*domain.Account, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	pattern := "%" + query + "%"

	var total int
	countQuery := `SELECT count(*) FROM accounts WHERE email ILIKE $1 OR coalesce(username, '') ILIKE $1`
	if err := r.db.DB.QueryRowContext(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE email ILIKE $1 OR coalesce(username, '') ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountColumns)

	rows, err := r.db.DB.QueryContext(ctx, listQuery, pattern, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, total, nil
}

// StatusLogs returns status change audit records for an account, newest
// first, cursor-paged by log id
func (r *accountRepository) StatusLogs(ctx context.Context, accountID, cursor string, limit int) ([]*domain.StatusLog, error) {
	if limit < 1 {
		limit = 10
	}

	query := `
		SELECT id, account_id, old_status, new_status, performed_by, created_at
		FROM account_status_logs
		WHERE account_id = $1
		  AND ($2 = '' OR created_at < (SELECT created_at FROM account_status_logs WHERE id::text = $2))
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.DB.QueryContext(ctx, query, accountID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list status logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		log := &domain.StatusLog{}
		err := rows.Scan(&log.ID, &log.AccountID, &log.OldStatus, &log.NewStatus, &log.PerformedBy, &log.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status logs: %w", err)
	}

	return logs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *accountRepository) scanAccount(row rowScanner) (*domain.Account, error) {
	account := &domain.Account{}
	var username sql.NullString
	var verifiedAt sql.NullTime

	err := row.Scan(
		&account.ID,
		&account.Email,
		&username,
		&account.PasswordHash,
		&account.IsEmailVerified,
		&account.Role,
		&account.Status,
		&verifiedAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if username.Valid {
		account.Username = &username.String
	}
	if verifiedAt.Valid {
		account.VerifiedAt = &verifiedAt.Time
	}

	return account, nil
}

func requireRowsAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}
	return nil
}

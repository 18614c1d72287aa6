package domain

import "time"

// Role determines what an account is allowed to administer
type Role string

const (
	RoleUser        Role = "USER"
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
)

// Status is the lifecycle state of an account
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusBanned    Status = "BANNED"
)

// validTransitions is the allowed status transition table. BANNED is handled
// on the admin path only: reachable from any state, leavable only back to
// ACTIVE.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusActive},
	StatusActive:    {StatusSuspended},
	StatusSuspended: {StatusActive},
}

// CanTransition reports whether from -> to is an allowed status transition.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Account represents an identity record in the system
type Account struct {
	ID              string     `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	Username        *string    `json:"username" db:"username"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	IsEmailVerified bool       `json:"is_email_verified" db:"is_email_verified"`
	Role            Role       `json:"role" db:"role"`
	Status          Status     `json:"status" db:"status"`
	VerifiedAt      *time.Time `json:"verified_at" db:"verified_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// StatusLog is an audit record of an account status change
type StatusLog struct {
	ID          string    `json:"id" db:"id"`
	AccountID   string    `json:"account_id" db:"account_id"`
	OldStatus   Status    `json:"old_status" db:"old_status"`
	NewStatus   Status    `json:"new_status" db:"new_status"`
	PerformedBy string    `json:"performed_by" db:"performed_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

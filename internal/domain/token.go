package domain

import "time"

// CodePurpose distinguishes what a one-time code proves
type CodePurpose string

const (
	PurposeVerifyEmail   CodePurpose = "VERIFY_EMAIL"
	PurposeResetPassword CodePurpose = "RESET_PASSWORD"
)

// AccessClaims represents the verified payload of an access token
type AccessClaims struct {
	AccountID string `json:"sub"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Exp       int64  `json:"exp"`
	Iat       int64  `json:"iat"`
}

// IsExpired checks if the token is expired
func (c AccessClaims) IsExpired() bool {
	return time.Now().Unix() > c.Exp
}

// RefreshToken is the persisted side of a refresh credential. The row id is
// the jti claim embedded in the signed token; the revoked flag is the
// revocation authority regardless of signature validity.
type RefreshToken struct {
	ID        string    `json:"id" db:"id"`
	AccountID string    `json:"account_id" db:"account_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Valid reports whether the record may still be exchanged.
func (t RefreshToken) Valid(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// VerificationCode stores the hash of a one-time code. The raw code is never
// persisted.
type VerificationCode struct {
	ID        string      `json:"id" db:"id"`
	AccountID string      `json:"account_id" db:"account_id"`
	CodeHash  string      `json:"-" db:"code_hash"`
	Purpose   CodePurpose `json:"purpose" db:"purpose"`
	ExpiresAt time.Time   `json:"expires_at" db:"expires_at"`
	Used      bool        `json:"used" db:"used"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// PasswordResetToken is the persisted side of a reset credential, consumed
// exactly once by SetNewPassword.
type PasswordResetToken struct {
	ID        string    `json:"id" db:"id"`
	AccountID string    `json:"account_id" db:"account_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

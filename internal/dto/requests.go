package dto

// RegisterRequest carries credentials plus the profile fields forwarded to
// the profile service during provisioning
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Username  string `json:"username" binding:"required,min=3,max=32"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Gender    string `json:"gender" binding:"omitempty,oneof=male female other"`
}

// LoginRequest represents a password login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResendVerificationRequest asks for a fresh email verification code
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyEmailRequest carries the one-time code delivered out of band
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// ChangePasswordRequest re-proves the current password before replacing it
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// RequestPasswordResetRequest starts the forgotten-password flow
type RequestPasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyResetCodeRequest exchanges a reset code for a short-lived reset token
type VerifyResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// SetNewPasswordRequest completes the reset flow; the reset token itself
// travels in a cookie, not the body
type SetNewPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// UpdateStatusRequest is the admin account state change payload
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING ACTIVE SUSPENDED BANNED"`
}

// UserInfo is the identity summary embedded in auth responses
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse is the login and refresh response body. The refresh token is
// delivered separately as an httpOnly cookie.
type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        UserInfo `json:"user"`
}

// UserResponse is the authenticated account view
type UserResponse struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	Username        *string `json:"username,omitempty"`
	Role            string  `json:"role"`
	Status          string  `json:"status"`
	IsEmailVerified bool    `json:"is_email_verified"`
	CreatedAt       string  `json:"created_at"`
}

// AccountListResponse is the paginated admin account listing
type AccountListResponse struct {
	Accounts []UserResponse `json:"accounts"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	Limit    int            `json:"limit"`
}

// StatusLogEntry is one audit record of an account state change
type StatusLogEntry struct {
	ID          string `json:"id"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
	PerformedBy string `json:"performed_by"`
	CreatedAt   string `json:"created_at"`
}

// StatusLogResponse is a cursor-paginated audit trail page
type StatusLogResponse struct {
	Logs       []StatusLogEntry `json:"logs"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// MessageResponse is a generic success envelope
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a generic error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}

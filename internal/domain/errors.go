package domain

import "errors"

// Domain error kinds. Handlers and callers branch on these with errors.Is
// instead of matching message text.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrEmailInUse           = errors.New("email already in use")
	ErrUsernameInUse        = errors.New("username already in use")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrAccountDisabled      = errors.New("account is suspended or banned")
	ErrIncorrectPassword    = errors.New("incorrect password")
	ErrCodeExpiredOrMissing = errors.New("no valid code found or code has expired")
	ErrCodeMismatch         = errors.New("code does not match")
	ErrAlreadyVerified      = errors.New("email already verified")
	ErrTokenInvalid         = errors.New("token is invalid")
	ErrTokenRevoked         = errors.New("token has been revoked")
	ErrWrongPurpose         = errors.New("token purpose mismatch")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrProfileProvisioning  = errors.New("profile provisioning failed")
)

package repository

import (
	"github.com/MagicalPanda8123/synapse-auth-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	Account          AccountRepository
	RefreshToken     RefreshTokenRepository
	VerificationCode VerificationCodeRepository
	ResetToken       ResetTokenRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		Account:          NewAccountRepository(db),
		RefreshToken:     NewRefreshTokenRepository(db),
		VerificationCode: NewVerificationCodeRepository(db),
		ResetToken:       NewResetTokenRepository(db),
	}
}

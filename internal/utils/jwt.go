package utils

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
)

// Token purposes embedded as a claim. Access tokens carry no purpose claim;
// everything else must name what it is good for.
const (
	PurposeResetPassword = string(domain.PurposeResetPassword)
	PurposeService       = "SERVICE"
)

// JWTManagerConfig carries the signing parameters loaded at startup
type JWTManagerConfig struct {
	KeyID              string
	Issuer             string
	Audience           string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	ResetTokenExpiry   time.Duration
	ServiceTokenExpiry time.Duration
}

// JWTManager signs and verifies tokens. Access, reset and service tokens are
// RS256 so external services can verify them against the published JWKS.
// Refresh tokens are HS256 with a dedicated secret: they are only ever
// verified by this service, and the separate key keeps a leaked refresh token
// from masquerading as an access token.
type JWTManager struct {
	privateKey    *rsa.PrivateKey
	refreshSecret []byte
	config        JWTManagerConfig
}

// NewJWTManager creates a new JWT manager. Key material is immutable for the
// process lifetime.
func NewJWTManager(privateKey *rsa.PrivateKey, refreshSecret string, config JWTManagerConfig) *JWTManager {
	return &JWTManager{
		privateKey:    privateKey,
		refreshSecret: []byte(refreshSecret),
		config:        config,
	}
}

// LoadPrivateKey reads an RSA private key in PEM format from disk
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return key, nil
}

type accessTokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type refreshTokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type purposeTokenClaims struct {
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues a short-lived RS256 access token for an account
func (j *JWTManager) GenerateAccessToken(account *domain.Account) (string, error) {
	now := time.Now()
	claims := &accessTokenClaims{
		Email: account.Email,
		Role:  string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    j.config.Issuer,
			Audience:  jwt.ClaimStrings{j.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.AccessTokenExpiry)),
		},
	}

	return j.sign(claims)
}

// VerifyAccessToken validates signature, issuer, audience and expiry and
// returns the verified claims
func (j *JWTManager) VerifyAccessToken(tokenString string) (*domain.AccessClaims, error) {
	var claims accessTokenClaims
	if err := j.parseRS256(tokenString, &claims); err != nil {
		return nil, err
	}

	return &domain.AccessClaims{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Role:      domain.Role(claims.Role),
		Exp:       claims.ExpiresAt.Unix(),
		Iat:       claims.IssuedAt.Unix(),
	}, nil
}

// GenerateRefreshToken issues an HS256 refresh token whose jti matches the
// persisted refresh token record
func (j *JWTManager) GenerateRefreshToken(accountID, jti string) (string, error) {
	now := time.Now()
	claims := &refreshTokenClaims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   accountID,
			Issuer:    j.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.RefreshTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyRefreshToken validates a refresh token and returns the owning account
// id and the jti of the persisted record. Signature validity alone does not
// make the token usable; the caller must still check the record's revoked
// flag.
func (j *JWTManager) VerifyRefreshToken(tokenString string) (accountID, jti string, err error) {
	var claims refreshTokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.refreshSecret, nil
	}, jwt.WithIssuer(j.config.Issuer), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	if claims.TokenType != "refresh" {
		return "", "", fmt.Errorf("%w: not a refresh token", domain.ErrTokenInvalid)
	}
	if claims.ID == "" || claims.Subject == "" {
		return "", "", fmt.Errorf("%w: missing jti or subject", domain.ErrTokenInvalid)
	}

	return claims.Subject, claims.ID, nil
}

// GenerateResetToken issues a narrowly scoped reset credential. The jti binds
// it to a one-time reset record so it can be consumed exactly once.
func (j *JWTManager) GenerateResetToken(accountID, email, jti string) (string, error) {
	now := time.Now()
	claims := &purposeTokenClaims{
		Email:   email,
		Purpose: PurposeResetPassword,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   accountID,
			Issuer:    j.config.Issuer,
			Audience:  jwt.ClaimStrings{j.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.ResetTokenExpiry)),
		},
	}

	return j.sign(claims)
}

// ResetClaims is the verified payload of a reset credential
type ResetClaims struct {
	AccountID string
	Email     string
	JTI       string
}

// VerifyResetToken validates a reset credential and checks its purpose claim
func (j *JWTManager) VerifyResetToken(tokenString string) (*ResetClaims, error) {
	var claims purposeTokenClaims
	if err := j.parseRS256(tokenString, &claims); err != nil {
		return nil, err
	}

	if claims.Purpose != PurposeResetPassword {
		return nil, fmt.Errorf("%w: got %q", domain.ErrWrongPurpose, claims.Purpose)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", domain.ErrTokenInvalid)
	}

	return &ResetClaims{
		AccountID: claims.Subject,
		Email:     claims.Email,
		JTI:       claims.ID,
	}, nil
}

// GenerateServiceToken issues a short-lived token for service-to-service
// calls, currently the profile provisioning request
func (j *JWTManager) GenerateServiceToken() (string, error) {
	now := time.Now()
	claims := &purposeTokenClaims{
		Purpose: PurposeService,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   j.config.Issuer,
			Issuer:    j.config.Issuer,
			Audience:  jwt.ClaimStrings{j.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.ServiceTokenExpiry)),
		},
	}

	return j.sign(claims)
}

// PublicKey returns the verification key for the RS256 tokens
func (j *JWTManager) PublicKey() *rsa.PublicKey {
	return &j.privateKey.PublicKey
}

// KeyID returns the kid embedded in signed token headers
func (j *JWTManager) KeyID() string {
	return j.config.KeyID
}

// AccessTokenExpirySeconds returns the access token lifetime in seconds
func (j *JWTManager) AccessTokenExpirySeconds() int {
	return int(j.config.AccessTokenExpiry.Seconds())
}

// RefreshTokenExpirySeconds returns the refresh token lifetime in seconds
func (j *JWTManager) RefreshTokenExpirySeconds() int {
	return int(j.config.RefreshTokenExpiry.Seconds())
}

// ResetTokenExpirySeconds returns the reset credential lifetime in seconds
func (j *JWTManager) ResetTokenExpirySeconds() int {
	return int(j.config.ResetTokenExpiry.Seconds())
}

func (j *JWTManager) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = j.config.KeyID

	signed, err := token.SignedString(j.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (j *JWTManager) parseRS256(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.privateKey.PublicKey, nil
	},
		jwt.WithIssuer(j.config.Issuer),
		jwt.WithAudience(j.config.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: expired", domain.ErrTokenInvalid)
		}
		return fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return domain.ErrTokenInvalid
	}

	return nil
}

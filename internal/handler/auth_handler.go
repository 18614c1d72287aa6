package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/dto"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/service"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/utils"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"

	resetCookieName = "reset_token"
	resetCookiePath = "/api/v1/auth/password"
)

const passwordPolicyMessage = "password must be at least 8 characters with an uppercase letter, a lowercase letter and a digit"

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a pending account and queues a verification code.
// No session is issued until the email is verified.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !utils.ValidatePassword(req.Password) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: passwordPolicyMessage})
		return
	}
	if !utils.ValidateUsername(req.Username) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "username may only contain letters, digits, '.', '-' and '_'"})
		return
	}

	if err := h.authService.Register(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MessageResponse{
		Message: "registration accepted, check your email for a verification code",
	})
}

// ResendVerification issues a fresh verification code
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req dto.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "verification code sent"})
}

// VerifyEmail consumes a verification code and activates the account
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "email verified"})
}

// Login authenticates with email and password and issues a session. Unknown
// accounts and wrong passwords get the same answer so the endpoint cannot be
// used to probe which emails are registered.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrIncorrectPassword) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid email or password"})
			return
		}
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result)
	c.JSON(http.StatusOK, toAuthResponse(result))
}

// Refresh rotates the cookie-borne refresh token and issues a new session
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "refresh token cookie missing"})
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.clearRefreshCookie(c)
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result)
	c.JSON(http.StatusOK, toAuthResponse(result))
}

// Logout revokes the cookie-borne refresh token and clears the cookie.
// Logging out without a valid session still succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err == nil && refreshToken != "" {
		// An unparseable token has nothing to revoke; clearing the cookie is
		// all the client needs.
		_ = h.authService.Logout(c.Request.Context(), refreshToken)
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

// GetMe returns the authenticated account
func (h *AuthHandler) GetMe(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	account, err := h.authService.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(account))
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, result *service.AuthResult) {
	c.SetCookie(refreshCookieName, result.RefreshToken, result.RefreshExpiresIn, refreshCookiePath, "", true, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", true, true)
}

func toAuthResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   result.AccessExpiresIn,
		User: dto.UserInfo{
			ID:    result.Account.ID,
			Email: result.Account.Email,
			Role:  string(result.Account.Role),
		},
	}
}

func toUserResponse(account *domain.Account) dto.UserResponse {
	return dto.UserResponse{
		ID:              account.ID,
		Email:           account.Email,
		Username:        account.Username,
		Role:            string(account.Role),
		Status:          string(account.Status),
		IsEmailVerified: account.IsEmailVerified,
		CreatedAt:       account.CreatedAt.Format(time.RFC3339),
	}
}

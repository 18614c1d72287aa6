package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/dto"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/utils"
)

// ChangePassword replaces the password of the authenticated account
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !utils.ValidatePassword(req.NewPassword) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: passwordPolicyMessage})
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), accountID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "password changed, all sessions revoked"})
}

// RequestPasswordReset starts the forgotten-password flow. The response is
// identical whether or not the email belongs to an account.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "if the email is registered, a reset code has been sent",
	})
}

// VerifyResetCode exchanges a reset code for a short-lived reset credential
// delivered as an httpOnly cookie
func (h *AuthHandler) VerifyResetCode(c *gin.Context) {
	var req dto.VerifyResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.authService.VerifyPasswordResetCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(resetCookieName, result.ResetToken, result.ExpiresIn, resetCookiePath, "", true, true)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "code verified, you may set a new password"})
}

// SetNewPassword completes the reset flow using the cookie-borne reset
// credential
func (h *AuthHandler) SetNewPassword(c *gin.Context) {
	resetToken, err := c.Cookie(resetCookieName)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "reset token cookie missing"})
		return
	}

	var req dto.SetNewPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !utils.ValidatePassword(req.NewPassword) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: passwordPolicyMessage})
		return
	}

	if err := h.authService.SetNewPassword(c.Request.Context(), resetToken, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(resetCookieName, "", -1, resetCookiePath, "", true, true)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "password updated, all sessions revoked"})
}

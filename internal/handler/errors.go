package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/dto"
)

// respondError maps domain error kinds onto HTTP statuses. Anything that is
// not a known kind is an internal error and its details stay out of the
// response body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrEmailInUse),
		errors.Is(err, domain.ErrUsernameInUse),
		errors.Is(err, domain.ErrAlreadyVerified),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrAccountNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrEmailNotVerified),
		errors.Is(err, domain.ErrAccountDisabled):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, domain.ErrIncorrectPassword),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenRevoked),
		errors.Is(err, domain.ErrWrongPurpose):
		status = http.StatusUnauthorized
		message = "invalid or expired credentials"
	case errors.Is(err, domain.ErrCodeExpiredOrMissing),
		errors.Is(err, domain.ErrCodeMismatch):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrProfileProvisioning):
		status = http.StatusBadGateway
		message = err.Error()
	}

	c.JSON(status, dto.ErrorResponse{Error: message})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}

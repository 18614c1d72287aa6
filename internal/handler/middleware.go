package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/dto"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/service"
)

// Context keys set by AuthMiddleware
const (
	ctxAccountID = "account_id"
	ctxEmail     = "email"
	ctxRole      = "role"
)

// AuthMiddleware validates the bearer access token and stores the verified
// identity on the request context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ctxAccountID, claims.AccountID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, string(claims.Role))

		c.Next()
	}
}

// RequireRole rejects requests whose verified role does not match. Must run
// after AuthMiddleware.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != string(role) {
			c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// accountIDFromContext returns the authenticated account id or aborts with 401
func accountIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(ctxAccountID)
	if id == "" {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "not authenticated"})
		c.Abort()
		return "", false
	}
	return id, true
}

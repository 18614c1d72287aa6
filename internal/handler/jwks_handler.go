package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/utils"
)

// JWKSHandler serves the public verification keys so other services can
// verify access tokens without calling back into this one. Key material is
// immutable for the process lifetime, so the document is built once.
func JWKSHandler(jwtManager *utils.JWTManager) gin.HandlerFunc {
	jwks := utils.BuildJWKS(jwtManager.PublicKey(), jwtManager.KeyID())

	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=3600")
		c.JSON(http.StatusOK, jwks)
	}
}

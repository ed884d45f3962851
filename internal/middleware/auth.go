package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinsynth/internal/domain"
	"clinsynth/internal/port"
)

const ContextKeyRequesterID = "requester_id"

// AuthMiddleware returns Gin middleware that validates bearer tokens and injects the
// requester id.
func AuthMiddleware(verifier port.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		requesterID, err := verifier.Verify(token)
		if err != nil {
			RequestLogger(c).Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeyRequesterID, requesterID)
		c.Set(ContextKeyLogger, RequestLogger(c).With(zap.String("requester_id", requesterID.String())))
		c.Next()
	}
}

// GetRequesterID extracts the requester ID from the Gin context.
func GetRequesterID(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(ContextKeyRequesterID)
	if !exists {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return val.(uuid.UUID), nil
}

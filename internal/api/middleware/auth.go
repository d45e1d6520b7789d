package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cyberguard/backend/internal/services"
)

const SubjectKey = "subject"

// RequireToken rejects requests without a valid bearer token. When the
// token service has no secret configured every request passes.
func RequireToken(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil || !tokens.Enabled() {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := tokens.Verify(header)
		if err != nil {
			GetRequestLogger(c).WithError(err).Debug("rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"matchwise/backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ActingUserHeader names the user on whose behalf a request is made.
	ActingUserHeader = "X-User-ID"

	actingUserKey = "acting_user_id"
)

func abort(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// APIKeyMiddleware validates API key from request headers
func APIKeyMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check X-API-Key header first (primary method)
		apiKey := c.GetHeader("X-API-Key")

		// Fallback to Authorization header
		if apiKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "ApiKey ") {
				apiKey = strings.TrimPrefix(authHeader, "ApiKey ")
			}
		}

		if apiKey == "" {
			abort(c, "MISSING_API_KEY", "API key is required. Provide X-API-Key header or Authorization: ApiKey <key>")
			return
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.External.APIKey)) != 1 {
			abort(c, "INVALID_API_KEY", "Invalid API key provided")
			return
		}

		c.Next()
	}
}

// ActingUserMiddleware requires an X-User-ID header holding a UUID and
// stores it for ActingUser.
func ActingUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(ActingUserHeader))
		if raw == "" {
			abort(c, "MISSING_ACTING_USER", "X-User-ID header is required")
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			abort(c, "INVALID_ACTING_USER", "X-User-ID must be a UUID")
			return
		}

		c.Set(actingUserKey, id)
		c.Next()
	}
}

// ActingUser returns the user stored by ActingUserMiddleware.
func ActingUser(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(actingUserKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

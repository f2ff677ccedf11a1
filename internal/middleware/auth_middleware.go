// internal/middleware/auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"instaup-service/internal/core"
	"instaup-service/internal/pkg/apperr"
	"instaup-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to the live session core.
type Authenticator interface {
	Authenticate(raw string) (*core.Core, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Auth validates the bearer token and puts the session core on the request
// context. A valid token whose session has expired gets a distinct message so
// the UI can prompt a re-login instead of a generic failure.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		userCore, err := m.auth.Authenticate(token)
		if err != nil {
			if errors.Is(err, apperr.ErrSessionExpired) {
				response.Error(c, http.StatusUnauthorized, "session expired", err)
				return
			}
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		c.Set("core", userCore)
		c.Set("user_id", userCore.UserID)
		c.Next()
	}
}

// extractToken extracts the bearer token from the Authorization header, with
// a query-param fallback for websocket upgrades.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return c.Query("token")
}

// GetCore returns the session core set by Auth.
func GetCore(c *gin.Context) (*core.Core, bool) {
	v, exists := c.Get("core")
	if !exists {
		return nil, false
	}
	userCore, ok := v.(*core.Core)
	return userCore, ok
}

// GetUserID returns the user ID set by Auth.
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// internal/middleware/helpers.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"instaup-service/internal/core"
)

// MustGetCore gets the session core from context or panics. Only for
// handlers behind Auth().
func MustGetCore(c *gin.Context) *core.Core {
	userCore, exists := GetCore(c)
	if !exists {
		panic("core not found in context")
	}
	return userCore
}

// MustGetUserID gets the user ID from context or panics.
func MustGetUserID(c *gin.Context) string {
	id, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return id
}

// IsAuthenticated checks if the request passed Auth().
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("user_id")
	return exists
}

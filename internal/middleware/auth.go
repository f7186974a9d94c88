package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/projecthub/project-management-api/internal/constants"
	"github.com/projecthub/project-management-api/internal/database"
	apierrors "github.com/projecthub/project-management-api/internal/errors"
	"github.com/projecthub/project-management-api/internal/models"
	"github.com/projecthub/project-management-api/internal/rbac"
)

const contextKeyIdentity = "identity"

// RequireAuth checks if the user is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(constants.ContextKeyUserID)

		if userID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetIdentity resolves the caller's identity (global role, hierarchy,
// division) from the user row, caching it in the request context.
func GetIdentity(c *gin.Context) (rbac.Identity, bool) {
	if cached, exists := c.Get(contextKeyIdentity); exists {
		if identity, ok := cached.(rbac.Identity); ok {
			return identity, true
		}
	}

	userID, exists := GetUserID(c)
	if !exists {
		return rbac.Identity{}, false
	}

	var user models.User
	if err := database.GetDB().First(&user, userID).Error; err != nil {
		return rbac.Identity{}, false
	}

	identity := rbac.IdentityFromUser(&user)
	c.Set(contextKeyIdentity, identity)
	return identity, true
}

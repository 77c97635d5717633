package auth

import (
	"net/http"
	"strings"

	"church-attendance-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Middleware provides JWT authentication middleware
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth validates JWT tokens and sets user context
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := m.service.ValidateJWT(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("uid", claims.UID)
		c.Set("email", claims.Email)
		c.Set("church", claims.Church)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin users. Must run after
// RequireAuth.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		if r, ok := role.(models.Role); !ok || r != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin role is required for this action"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUID is a helper function to extract the user id from context
func GetUID(c *gin.Context) (string, bool) {
	uid, exists := c.Get("uid")
	if !exists {
		return "", false
	}
	id, ok := uid.(string)
	return id, ok
}

// GetChurch is a helper function to extract the church scope from context
func GetChurch(c *gin.Context) (string, bool) {
	church, exists := c.Get("church")
	if !exists {
		return "", false
	}
	name, ok := church.(string)
	return name, ok
}

// GetRole is a helper function to extract the acting role from context
func GetRole(c *gin.Context) (models.Role, bool) {
	role, exists := c.Get("role")
	if !exists {
		return "", false
	}
	r, ok := role.(models.Role)
	return r, ok
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

const contextRoleKey = "listingRole"

// WithRole binds the listing role served by a route group.
func WithRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextRoleKey, role)
		c.Next()
	}
}

func roleFromContext(c *gin.Context) models.Role {
	if value, exists := c.Get(contextRoleKey); exists {
		if role, ok := value.(models.Role); ok {
			return role
		}
	}
	role, _ := models.ParseRole(c.Param("role"))
	return role
}

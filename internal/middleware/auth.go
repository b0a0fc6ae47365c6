package middleware

import (
	"net/http"
	"strings"

	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	"github.com/Vantorrr/influenta-backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Token may have been revoked via logout
		if database.IsTokenBlacklisted(claims.GetJTI()) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("claims", claims)

		// Verify user exists and is not blocked
		var user models.User
		if err := database.DB.Select("id", "is_blocked").First(&user, "id = ?", claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
			c.Abort()
			return
		}
		if user.IsBlocked {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRole gates an endpoint to a single role, e.g. only
// advertisers create offers.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actual, exists := c.Get("role")
		if !exists || actual.(string) != string(role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient role for this action"})
			c.Abort()
			return
		}
		c.Next()
	}
}

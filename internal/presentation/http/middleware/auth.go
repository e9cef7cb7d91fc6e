package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/collectra/collectra-api/internal/presentation/http/dto/response"
	"github.com/collectra/collectra-api/pkg/utils"
)

// AuthMiddleware validates the Bearer token and stores the staff identity
// and authorization snapshot on the request context.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_roles", claims.Roles)
		c.Set("user_permissions", claims.Permissions)

		c.Next()
	}
}

func contextStrings(c *gin.Context, key string) ([]string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return nil, false
	}
	list, ok := value.([]string)
	return list, ok
}

// RequirePermission gates a route on a single permission from the token
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted, ok := contextStrings(c, "user_permissions")
		if !ok {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		for _, p := range granted {
			if p == permission {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "You do not have permission to perform this action")
		c.Abort()
	}
}

// RequireRole gates a route on holding any one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held, ok := contextStrings(c, "user_roles")
		if !ok {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		for _, have := range held {
			for _, want := range roles {
				if have == want {
					c.Next()
					return
				}
			}
		}

		response.Forbidden(c, "Insufficient role privileges")
		c.Abort()
	}
}

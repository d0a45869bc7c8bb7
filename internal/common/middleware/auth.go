package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agrirent/service-booking/internal/common/auth"
	"github.com/agrirent/service-booking/internal/common/response"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "user_role"
)

// AuthMiddleware requires a valid bearer access token and stores the caller's identity on the context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "authorization header is required")
			return
		}

		token := header
		if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
			token = token[7:]
		}

		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole allows the request through only if the caller holds one of the roles.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "role "+string(role)+" is not allowed to perform this action")
	}
}

// GetUserID returns the authenticated caller's ID.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserRole returns the authenticated caller's role.
func GetUserRole(c *gin.Context) (auth.Role, bool) {
	v, ok := c.Get(ctxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(auth.Role)
	return role, ok
}

// GetActor returns the authenticated caller as an Actor.
func GetActor(c *gin.Context) (auth.Actor, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return auth.Actor{}, false
	}
	role, ok := GetUserRole(c)
	if !ok {
		return auth.Actor{}, false
	}
	return auth.NewActor(id, role), true
}

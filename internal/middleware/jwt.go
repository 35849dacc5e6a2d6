package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/auth"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxClaims = "claims"
)

// RequireAuth ensures a valid access token is present. The token comes from
// the Authorization header or, for websocket upgrades, the token query value.
func RequireAuth(m *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearer(c)
		if tokenString == "" {
			AbortWithError(c, apperr.UnauthorizedError{Msg: "Missing or invalid Authorization header"})
			return
		}

		claims, err := m.Parse(c.Request.Context(), tokenString, auth.AccessToken)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		userID, _ := uuid.Parse(claims.UserID)

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireRole must run after RequireAuth. It lets the request through when
// the caller holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, apperr.ForbiddenError{Msg: "Insufficient permissions"})
	}
}

// RequireAuthWithRole is RequireAuth followed by RequireRole.
func RequireAuthWithRole(m *auth.Manager, roles ...string) gin.HandlerFunc {
	authn := RequireAuth(m)
	authz := RequireRole(roles...)
	return func(c *gin.Context) {
		authn(c)
		if c.IsAborted() {
			return
		}
		authz(c)
	}
}

func UserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxUserID)
	uid, _ := id.(uuid.UUID)
	return uid
}

func Role(c *gin.Context) string {
	return c.GetString(ctxRole)
}

func Claims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(ctxClaims)
	claims, _ := v.(*auth.Claims)
	return claims
}

func bearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if header == "" {
		return c.Query("token")
	}
	return ""
}

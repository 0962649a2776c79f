package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/auth"
	"github.com/justsurfingit/InternConnect/internal/models"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
	ContextEmailKey  = "email"
)

// tokenFrom reads the bearer header first and falls back to the session cookie.
func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(auth.SessionCookie); err == nil {
		return cookie
	}
	return ""
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextUserIDKey, claims.UserID())
	c.Set(ContextRoleKey, claims.Role)
	c.Set(ContextEmailKey, claims.Email)
}

// Authenticate rejects API requests without a valid token.
func Authenticate(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFrom(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

func CurrentRole(c *gin.Context) models.Role {
	role, _ := c.Get(ContextRoleKey)
	r, _ := role.(models.Role)
	return r
}

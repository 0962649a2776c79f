package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/auth"
	"github.com/justsurfingit/InternConnect/internal/models"
)

const (
	LoginPath     = "/login"
	ForbiddenPath = "/forbidden"
)

// pageRoles maps page prefixes to the only role allowed under them.
var pageRoles = []struct {
	prefix string
	role   models.Role
}{
	{"/student", models.RoleStudent},
	{"/employer", models.RoleEmployer},
	{"/admin", models.RoleAdmin},
}

func protectedRole(path string) (models.Role, bool) {
	for _, p := range pageRoles {
		if path == p.prefix || strings.HasPrefix(path, p.prefix+"/") {
			return p.role, true
		}
	}
	return "", false
}

// GuardPages protects the browser-facing pages. Unauthenticated visitors are sent
// to the login page, visitors with the wrong role to the forbidden page.
func GuardPages(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		want, ok := protectedRole(path)
		if !ok {
			c.Next()
			return
		}

		raw := tokenFrom(c)
		if raw == "" {
			c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		if claims.Role != want {
			c.Redirect(http.StatusFound, ForbiddenPath)
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/auth"
	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/middleware"
	"github.com/justsurfingit/InternConnect/internal/services"
)

type AuthHandler struct {
	AuthService  *services.AuthService
	CookieSecure bool
}

func NewAuthHandler(a *services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{AuthService: a, CookieSecure: cookieSecure}
}

// Register is the POST /api/auth/register endpoint
func (h *AuthHandler) Register(c *gin.Context) {
	var req dtos.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.AuthService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSession(c, session)
	c.JSON(http.StatusCreated, session)
}

// Login is the POST /api/auth/login endpoint
func (h *AuthHandler) Login(c *gin.Context) {
	var req dtos.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.AuthService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSession(c, session)
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.AuthService.Me(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", h.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) setSession(c *gin.Context, s *services.Session) {
	maxAge := int(h.AuthService.Tokens.TTL().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, s.Token, maxAge, "/", "", h.CookieSecure, true)
}

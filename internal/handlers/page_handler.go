package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/middleware"
	"github.com/justsurfingit/InternConnect/internal/services"
	"github.com/justsurfingit/InternConnect/internal/storage"
	"gorm.io/gorm"
)

// PageHandler serves the role dashboards and the small unauthenticated pages.
type PageHandler struct {
	DashboardService *services.DashboardService
	DB               *gorm.DB
	Files            *storage.Local
}

func NewPageHandler(d *services.DashboardService, db *gorm.DB, files *storage.Local) *PageHandler {
	return &PageHandler{DashboardService: d, DB: db, Files: files}
}

func (h *PageHandler) StudentDashboard(c *gin.Context) {
	dash, err := h.DashboardService.Student(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *PageHandler) EmployerDashboard(c *gin.Context) {
	dash, err := h.DashboardService.Employer(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *PageHandler) AdminDashboard(c *gin.Context) {
	dash, err := h.DashboardService.AdminOverview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *PageHandler) Login(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "sign in with POST /api/auth/login",
		"next":    c.Query("next"),
	})
}

func (h *PageHandler) Forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "your role cannot open this page"})
}

// Health reports whether the database answers.
func (h *PageHandler) Health(c *gin.Context) {
	status, code := "ok", http.StatusOK
	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status})
}

// File streams an object from local storage after checking its signed URL.
func (h *PageHandler) File(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	f, err := h.Files.Open(key, c.Query("expires"), c.Query("sig"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrBadSignature):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, storage.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			respondError(c, err)
		}
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "private, no-store")
	http.ServeContent(c.Writer, c.Request, path.Base(key), info.ModTime(), f)
}

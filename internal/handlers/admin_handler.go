package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/services"
)

type AdminHandler struct {
	AdminService *services.AdminService
}

func NewAdminHandler(a *services.AdminService) *AdminHandler {
	return &AdminHandler{AdminService: a}
}

func (h *AdminHandler) Employers(c *gin.Context) {
	employers, err := h.AdminService.ListEmployers(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employers": employers})
}

// SetVerification is the PATCH /api/admin/employers/:id/verification endpoint
func (h *AdminHandler) SetVerification(c *gin.Context) {
	var req dtos.VerificationRequest
	if !bindJSON(c, &req) {
		return
	}
	employer, err := h.AdminService.SetVerification(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employer)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.AdminService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.AdminService.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AdminHandler) DeleteJob(c *gin.Context) {
	if err := h.AdminService.DeleteJob(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

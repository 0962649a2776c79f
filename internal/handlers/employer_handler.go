package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/middleware"
	"github.com/justsurfingit/InternConnect/internal/services"
)

type EmployerHandler struct {
	EmployerService    *services.EmployerService
	ApplicationService *services.ApplicationService
	InterviewService   *services.InterviewService
}

func NewEmployerHandler(e *services.EmployerService, a *services.ApplicationService, i *services.InterviewService) *EmployerHandler {
	return &EmployerHandler{EmployerService: e, ApplicationService: a, InterviewService: i}
}

// Register is the POST /api/employer/register endpoint. New companies start pending.
func (h *EmployerHandler) Register(c *gin.Context) {
	var req dtos.EmployerRequest
	if !bindJSON(c, &req) {
		return
	}
	employer, err := h.EmployerService.Register(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, employer)
}

func (h *EmployerHandler) Profile(c *gin.Context) {
	view, err := h.EmployerService.Profile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EmployerHandler) UpdateProfile(c *gin.Context) {
	var req dtos.EmployerRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.EmployerService.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EmployerHandler) UploadLogo(c *gin.Context) {
	up, ok := readUpload(c)
	if !ok {
		return
	}
	view, err := h.EmployerService.UploadLogo(c.Request.Context(), middleware.CurrentUserID(c), up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EmployerHandler) UpdateApplicationStatus(c *gin.Context) {
	var req dtos.ApplicationStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.ApplicationService.UpdateStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *EmployerHandler) ScheduleInterview(c *gin.Context) {
	var req dtos.InterviewRequest
	if !bindJSON(c, &req) {
		return
	}
	interview, err := h.InterviewService.Schedule(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, interview)
}

func (h *EmployerHandler) Interviews(c *gin.Context) {
	interviews, err := h.InterviewService.ListForEmployer(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": interviews})
}

func (h *EmployerHandler) UpdateInterview(c *gin.Context) {
	var req dtos.InterviewUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	interview, err := h.InterviewService.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interview)
}

func (h *EmployerHandler) CancelInterview(c *gin.Context) {
	interview, err := h.InterviewService.Cancel(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interview)
}

// PublicProfile is the GET /api/employers/:id company page.
func (h *EmployerHandler) PublicProfile(c *gin.Context) {
	page, err := h.EmployerService.PublicProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *EmployerHandler) TopCompanies(c *gin.Context) {
	companies, err := h.EmployerService.TopCompanies(c.Request.Context(), queryInt(c, "limit", 10), true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

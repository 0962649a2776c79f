package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/middleware"
	"github.com/justsurfingit/InternConnect/internal/services"
)

type StudentHandler struct {
	StudentService     *services.StudentService
	ApplicationService *services.ApplicationService
	InterviewService   *services.InterviewService
	MatcherService     *services.MatcherService
}

func NewStudentHandler(s *services.StudentService, a *services.ApplicationService, i *services.InterviewService, m *services.MatcherService) *StudentHandler {
	return &StudentHandler{
		StudentService:     s,
		ApplicationService: a,
		InterviewService:   i,
		MatcherService:     m,
	}
}

func (h *StudentHandler) Profile(c *gin.Context) {
	profile, err := h.StudentService.Profile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *StudentHandler) UpdateProfile(c *gin.Context) {
	var req dtos.StudentProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.StudentService.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadResume is the POST /api/student/resume endpoint. A failed AI parse
// still answers 200 with parse_error set, the file itself is kept.
func (h *StudentHandler) UploadResume(c *gin.Context) {
	up, ok := readUpload(c)
	if !ok {
		return
	}
	result, err := h.StudentService.UploadResume(c.Request.Context(), middleware.CurrentUserID(c), up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *StudentHandler) ResumeURL(c *gin.Context) {
	url, expiresAt, err := h.StudentService.ResumeURL(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expires_at": expiresAt})
}

func (h *StudentHandler) Applications(c *gin.Context) {
	apps, err := h.ApplicationService.ListForStudent(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *StudentHandler) Apply(c *gin.Context) {
	var req dtos.ApplyRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.ApplicationService.Apply(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *StudentHandler) Withdraw(c *gin.Context) {
	app, err := h.ApplicationService.Withdraw(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *StudentHandler) Interviews(c *gin.Context) {
	interviews, err := h.InterviewService.ListForStudent(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": interviews})
}

func (h *StudentHandler) Matches(c *gin.Context) {
	matches, err := h.MatcherService.MatchesForStudent(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *StudentHandler) RefreshMatches(c *gin.Context) {
	matches, err := h.MatcherService.RefreshForStudent(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *StudentHandler) CoverLetter(c *gin.Context) {
	var req dtos.CoverLetterRequest
	if !bindJSON(c, &req) {
		return
	}
	letter, err := h.ApplicationService.DraftCoverLetter(c.Request.Context(), middleware.CurrentUserID(c), req.JobID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cover_letter": letter})
}

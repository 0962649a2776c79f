package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/middleware"
	"github.com/justsurfingit/InternConnect/internal/services"
)

// JobHandler serves job postings to employers and to the public board.
type JobHandler struct {
	LLMService         *services.LLMService
	JobService         *services.JobService
	ApplicationService *services.ApplicationService
	MatcherService     *services.MatcherService
}

func NewJobHandler(llm *services.LLMService, j *services.JobService, a *services.ApplicationService, m *services.MatcherService) *JobHandler {
	return &JobHandler{
		LLMService:         llm,
		JobService:         j,
		ApplicationService: a,
		MatcherService:     m,
	}
}

// ParseJob is the POST /api/employer/jobs/extract endpoint
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if !bindJSON(c, &req) {
		return
	}
	extractedJSON, err := h.LLMService.ExtractJobDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		if errors.Is(err, services.ErrAIUnavailable) {
			respondError(c, err)
			return
		}
		logging.L.Error("job extraction failed", "url", req.URL, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI extraction failed"})
		return
	}

	// RawMessage keeps the model's JSON from being re-escaped as a string
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    json.RawMessage(extractedJSON),
	})
}

// CreateJob is the POST /api/employer/jobs endpoint
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.JobService.CreateJob(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) ListMine(c *gin.Context) {
	jobs, err := h.JobService.ListEmployerJobs(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.JobService.UpdateJob(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) SetStatus(c *gin.Context) {
	var req dtos.JobStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.JobService.SetStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.JobService.DeleteJob(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Applicants lists the applications to one of the employer's postings.
func (h *JobHandler) Applicants(c *gin.Context) {
	applicants, err := h.ApplicationService.ListForJob(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applicants})
}

// Candidates ranks students against one of the employer's postings.
func (h *JobHandler) Candidates(c *gin.Context) {
	candidates, err := h.MatcherService.CandidatesForJob(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// ListPublic is the GET /api/jobs endpoint
func (h *JobHandler) ListPublic(c *gin.Context) {
	var f dtos.JobFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, "invalid query: "+err.Error())
		return
	}
	page, err := h.JobService.ListPublic(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *JobHandler) GetPublic(c *gin.Context) {
	job, err := h.JobService.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

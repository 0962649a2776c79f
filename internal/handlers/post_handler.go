package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/middleware"
	"github.com/justsurfingit/InternConnect/internal/services"
)

type PostHandler struct {
	PostService *services.PostService
}

func NewPostHandler(p *services.PostService) *PostHandler {
	return &PostHandler{PostService: p}
}

func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.PostService.List(c.Request.Context(), c.Query("hashtag"), queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *PostHandler) Create(c *gin.Context) {
	var req dtos.PostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.PostService.Create(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Trending(c *gin.Context) {
	tags, err := h.PostService.TrendingHashtags(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hashtags": tags})
}

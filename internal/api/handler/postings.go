package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobpulse/jobpulse/internal/api/middleware"
	"github.com/jobpulse/jobpulse/internal/service"
)

// PostingHandler exposes posting population stats.
type PostingHandler struct {
	lifecycle *service.Lifecycle
}

// NewPostingHandler creates a new posting handler.
func NewPostingHandler(lifecycle *service.Lifecycle) *PostingHandler {
	return &PostingHandler{lifecycle: lifecycle}
}

// Stats handles GET /api/v1/postings/stats.
func (h *PostingHandler) Stats(c *gin.Context) {
	summary, err := h.lifecycle.Summary(c.Request.Context())
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to compute posting stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

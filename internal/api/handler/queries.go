package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobpulse/jobpulse/internal/api/middleware"
	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/repository"
)

// QueryHandler exposes scrape query management.
type QueryHandler struct {
	queries *repository.QueryRepository
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(queries *repository.QueryRepository) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// ListQueries handles GET /api/v1/queries.
func (h *QueryHandler) ListQueries(c *gin.Context) {
	queries, err := h.queries.List(c.Request.Context())
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list queries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list queries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": queries, "count": len(queries)})
}

type createQueryRequest struct {
	SearchQuery      string `json:"search_query" binding:"required"`
	LocationQuery    string `json:"location_query"`
	Platform         string `json:"platform" binding:"required"`
	Country          string `json:"country"`
	Enabled          *bool  `json:"enabled"`
	MinIntervalHours int    `json:"min_interval_hours"`
}

// CreateQuery handles POST /api/v1/queries.
func (h *QueryHandler) CreateQuery(c *gin.Context) {
	var req createQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.MinIntervalHours < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_interval_hours must not be negative"})
		return
	}

	query := &domain.ScrapeQuery{
		SearchQuery:      req.SearchQuery,
		LocationQuery:    req.LocationQuery,
		Platform:         req.Platform,
		Country:          req.Country,
		Enabled:          true,
		MinIntervalHours: req.MinIntervalHours,
	}
	if req.Enabled != nil {
		query.Enabled = *req.Enabled
	}
	if query.MinIntervalHours == 0 {
		query.MinIntervalHours = 24
	}

	if err := h.queries.Create(c.Request.Context(), query); err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to create query")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create query"})
		return
	}
	c.JSON(http.StatusCreated, query)
}

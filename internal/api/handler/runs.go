package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jobpulse/jobpulse/internal/api/middleware"
	"github.com/jobpulse/jobpulse/internal/domain"
	"github.com/jobpulse/jobpulse/internal/repository"
	"github.com/jobpulse/jobpulse/internal/service"
)

// RunHandler exposes scrape runs and manual triggering.
type RunHandler struct {
	runs         *repository.RunRepository
	orchestrator *service.Orchestrator
}

// NewRunHandler creates a new run handler.
func NewRunHandler(runs *repository.RunRepository, orchestrator *service.Orchestrator) *RunHandler {
	return &RunHandler{runs: runs, orchestrator: orchestrator}
}

// ListRuns handles GET /api/v1/runs. Optional query params: status, limit.
func (h *RunHandler) ListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	status := domain.RunStatus(c.Query("status"))
	switch status {
	case "", domain.RunStatusPending, domain.RunStatusRunning, domain.RunStatusCompleted, domain.RunStatusFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	runs, err := h.runs.ListRecent(c.Request.Context(), status, limit)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun handles GET /api/v1/runs/:id.
func (h *RunHandler) GetRun(c *gin.Context) {
	run, err := h.runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to load run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

type triggerRequest struct {
	DaysOverride *int `json:"days_override"`
}

// TriggerRun handles POST /api/v1/queries/:id/trigger. The run executes
// synchronously; the response carries its final state.
func (h *RunHandler) TriggerRun(c *gin.Context) {
	var req triggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.DaysOverride != nil && *req.DaysOverride < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days_override must be positive"})
		return
	}

	run, err := h.orchestrator.RunQuery(c.Request.Context(), c.Param("id"), req.DaysOverride)
	if err != nil {
		if errors.Is(err, service.ErrQueryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "query not found"})
			return
		}
		// The run row carries the failure detail; surface both.
		if run != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "run": run})
			return
		}
		middleware.GetLogger(c).WithError(err).Error("Failed to trigger run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to trigger run"})
		return
	}
	c.JSON(http.StatusOK, run)
}

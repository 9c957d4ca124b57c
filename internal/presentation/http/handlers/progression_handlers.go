package handlers

import (
	"net/http"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/application/services"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ProgressionHandlers contains stage progression HTTP handlers.
type ProgressionHandlers struct {
	progressionService *services.ProgressionService
	logger             *logging.ChanneledLogger
	perfTracker        *performance.Tracker
}

// NewProgressionHandlers creates progression handlers with injected dependencies.
func NewProgressionHandlers(progressionService *services.ProgressionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ProgressionHandlers {
	return &ProgressionHandlers{
		progressionService: progressionService,
		logger:             logger,
		perfTracker:        perfTracker,
	}
}

// PostAdvance handles POST /api/v1/progression/advance - consumes the
// presented stage token and moves the session forward one stage.
func (h *ProgressionHandlers) PostAdvance(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()

	var req struct {
		Token     string `json:"token" binding:"required"`
		SessionID string `json:"sessionId"`
		NextStage *int   `json:"nextStage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	result, err := h.progressionService.AdvanceStage(&services.AdvanceRequest{
		Token:     req.Token,
		SessionID: req.SessionID,
		NextStage: *req.NextStage,
		Metadata:  requestMetadata(c),
	}, tenantCtx)
	if err != nil {
		h.logger.Gateway().Debug("Advance rejected", "tenantId", tenantCtx.TenantID,
			"sessionId", req.SessionID, "error", err.Error(), "duration", time.Since(start))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

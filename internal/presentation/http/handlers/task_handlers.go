package handlers

import (
	"net/http"

	"github.com/NexusProtocols/nexus-gateway-go/internal/application/services"
	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// TaskHandlers contains task tracking HTTP handlers.
type TaskHandlers struct {
	analyticsService *services.AnalyticsService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewTaskHandlers creates task handlers with injected dependencies.
func NewTaskHandlers(analyticsService *services.AnalyticsService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *TaskHandlers {
	return &TaskHandlers{
		analyticsService: analyticsService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

type taskRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	GatewayID string `json:"gatewayId" binding:"required"`
	TaskID    string `json:"taskId" binding:"required"`
	Stage     int    `json:"stage"`
}

// PostTaskStart handles POST /api/v1/tasks/start - records that a
// visitor clicked into a task. Fire-and-forget.
func (h *TaskHandlers) PostTaskStart(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	h.analyticsService.RecordTaskEvent(&services.RecordEventRequest{
		SessionID: req.SessionID,
		GatewayID: req.GatewayID,
		TaskID:    req.TaskID,
		Action:    gatewayDomain.ActionTaskStart,
		Stage:     req.Stage,
		Metadata:  requestMetadata(c),
	}, tenantCtx)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PostTaskComplete handles POST /api/v1/tasks/complete - merges the
// task into the session's completed set. Idempotent: repeating a task
// is acknowledged without duplicating it.
func (h *TaskHandlers) PostTaskComplete(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	session, err := h.analyticsService.CompleteTask(&services.RecordEventRequest{
		SessionID: req.SessionID,
		GatewayID: req.GatewayID,
		TaskID:    req.TaskID,
		Stage:     req.Stage,
		Metadata:  requestMetadata(c),
	}, tenantCtx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"completedTasks": session.CompletedTasks,
	})
}

// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/application/services"
	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SessionHandlers contains visitor session HTTP handlers.
type SessionHandlers struct {
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewSessionHandlers creates session handlers with injected dependencies.
func NewSessionHandlers(sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionHandlers {
	return &SessionHandlers{
		sessionService: sessionService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// PostSession handles POST /api/v1/sessions - opens a visitor session
// against a gateway and returns the initial stage token.
func (h *SessionHandlers) PostSession(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()

	var req struct {
		GatewayID string  `json:"gatewayId" binding:"required"`
		UserID    *string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	envelope, err := h.sessionService.CreateSession(&services.CreateSessionRequest{
		GatewayID: req.GatewayID,
		UserID:    req.UserID,
		Metadata:  requestMetadata(c),
	}, tenantCtx)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Gateway().Debug("Session opened", "tenantId", tenantCtx.TenantID,
		"sessionId", envelope.Session.ID, "duration", time.Since(start))
	c.JSON(http.StatusCreated, gin.H{
		"session": envelope.Session,
		"token":   envelope.Token,
	})
}

// GetSession handles GET /api/v1/sessions/:sessionId - returns the
// current session snapshot.
func (h *SessionHandlers) GetSession(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	session, err := h.sessionService.GetSession(c.Param("sessionId"), tenantCtx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// PostRefreshToken handles POST /api/v1/sessions/:sessionId/token -
// re-mints the stage token for a page reload.
func (h *SessionHandlers) PostRefreshToken(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	envelope, err := h.sessionService.RefreshToken(c.Param("sessionId"), tenantCtx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": envelope.Session,
		"token":   envelope.Token,
	})
}

// requestMetadata captures request context for analytics events.
func requestMetadata(c *gin.Context) *gatewayDomain.EventMetadata {
	return &gatewayDomain.EventMetadata{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}

package handlers

import (
	"net/http"

	"github.com/NexusProtocols/nexus-gateway-go/internal/application/services"
	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
	"github.com/NexusProtocols/nexus-gateway-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// GatewayHandlers contains gateway definition HTTP handlers.
type GatewayHandlers struct {
	gatewayService *services.GatewayService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewGatewayHandlers creates gateway handlers with injected dependencies.
func NewGatewayHandlers(gatewayService *services.GatewayService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *GatewayHandlers {
	return &GatewayHandlers{
		gatewayService: gatewayService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// publicView strips creator-only fields from a gateway. The reward URL
// must never be visible before a session completes the gateway.
func publicView(gw *gatewayDomain.Gateway) gin.H {
	return gin.H{
		"id":          gw.ID,
		"title":       gw.Title,
		"description": gw.Description,
		"totalStages": gw.TotalStages,
		"stages":      gw.Stages,
		"isActive":    gw.IsActive,
	}
}

// GetGateway handles GET /api/v1/gateways/:gatewayId - the public view
// a visitor loads before opening a session.
func (h *GatewayHandlers) GetGateway(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	gw, err := h.gatewayService.GetGateway(c.Param("gatewayId"), tenantCtx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gateway": publicView(gw)})
}

// PostGateway handles POST /api/v1/gateways - creates a gateway for
// the authenticated creator.
func (h *GatewayHandlers) PostGateway(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req services.CreateGatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}
	req.CreatorID = c.GetString("creatorId")

	gw, err := h.gatewayService.CreateGateway(&req, tenantCtx)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"gateway": gw})
}

// GetMyGateways handles GET /api/v1/gateways - lists the authenticated
// creator's gateways, reward URLs included.
func (h *GatewayHandlers) GetMyGateways(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	gateways, err := h.gatewayService.ListByCreator(c.GetString("creatorId"), tenantCtx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gateways": gateways})
}

// PutGateway handles PUT /api/v1/gateways/:gatewayId - partial update
// of a gateway the caller owns.
func (h *GatewayHandlers) PutGateway(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	gatewayID := c.Param("gatewayId")
	if !h.callerOwnsGateway(c, gatewayID, tenantCtx) {
		return
	}

	var req services.UpdateGatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	gw, err := h.gatewayService.UpdateGateway(gatewayID, &req, tenantCtx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gateway": gw})
}

// DeleteGateway handles DELETE /api/v1/gateways/:gatewayId.
func (h *GatewayHandlers) DeleteGateway(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	gatewayID := c.Param("gatewayId")
	if !h.callerOwnsGateway(c, gatewayID, tenantCtx) {
		return
	}

	if err := h.gatewayService.DeleteGateway(gatewayID, tenantCtx); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// callerOwnsGateway enforces ownership for mutating routes. Admins may
// manage any gateway in their tenant. Writes the error response itself
// when the check fails.
func (h *GatewayHandlers) callerOwnsGateway(c *gin.Context, gatewayID string, tenantCtx *tenant.Context) bool {
	gw, err := h.gatewayService.GetGateway(gatewayID, tenantCtx)
	if err != nil {
		respondError(c, err)
		return false
	}
	if c.GetString("role") != "admin" && gw.CreatorID != c.GetString("creatorId") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your gateway"})
		return false
	}
	return true
}

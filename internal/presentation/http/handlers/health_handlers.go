package handlers

import (
	"net/http"

	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
	"github.com/gin-gonic/gin"
)

// HealthHandlers exposes liveness and basic runtime stats.
type HealthHandlers struct {
	tenantManager *tenant.Manager
	perfTracker   *performance.Tracker
}

// NewHealthHandlers creates health handlers.
func NewHealthHandlers(tenantManager *tenant.Manager, perfTracker *performance.Tracker) *HealthHandlers {
	return &HealthHandlers{tenantManager: tenantManager, perfTracker: perfTracker}
}

// GetHealth handles GET /api/v1/health.
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     h.perfTracker.Uptime().String(),
		"tenants":    h.tenantManager.ActiveTenantIDs(),
		"operations": h.perfTracker.CompletedCount(),
	})
}

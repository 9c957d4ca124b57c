// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"

	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
	"github.com/gin-gonic/gin"
)

// TenantMiddleware resolves the tenant from the X-Tenant-ID header and
// attaches the activated tenant context to the request. Websocket
// clients may pass the tenant as a query parameter instead.
func TenantMiddleware(tenantManager *tenant.Manager, perfTracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		marker := perfTracker.StartOperation("middleware_tenant_resolution", "unknown")
		defer marker.Complete()

		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			tenantID = c.Query("tenantId")
		}
		if tenantID == "" {
			tenantID = tenant.DefaultTenantID
		}
		marker.TenantID = tenantID
		marker.AddMetadata("path", c.Request.URL.Path)

		tenantCtx, err := tenantManager.GetContext(tenantID)
		if err != nil {
			marker.SetError(err)
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			c.Abort()
			return
		}

		marker.SetSuccess(true)
		c.Set("tenant", tenantCtx)
		c.Next()
	}
}

// GetTenantContext retrieves the tenant context set by TenantMiddleware.
func GetTenantContext(c *gin.Context) (*tenant.Context, bool) {
	value, exists := c.Get("tenant")
	if !exists {
		return nil, false
	}
	ctx, ok := value.(*tenant.Context)
	return ctx, ok
}

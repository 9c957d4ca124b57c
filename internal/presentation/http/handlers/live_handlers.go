package handlers

import (
	"net/http"

	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/messaging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// LiveHandlers serves the creator dashboard websocket feed.
type LiveHandlers struct {
	broadcaster *messaging.LiveBroadcaster
	logger      *logging.ChanneledLogger
	upgrader    websocket.Upgrader
}

// NewLiveHandlers creates live dashboard handlers.
func NewLiveHandlers(broadcaster *messaging.LiveBroadcaster, logger *logging.ChanneledLogger) *LiveHandlers {
	return &LiveHandlers{
		broadcaster: broadcaster,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by CORS on the HTTP side.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// GetGatewayFeed handles GET /api/v1/live/gateways/:gatewayId - upgrades
// to a websocket that streams progress events for the gateway.
func (h *LiveHandlers) GetGatewayFeed(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}
	gatewayID := c.Param("gatewayId")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Live().Error("Websocket upgrade failed", "tenantId", tenantCtx.TenantID, "error", err.Error())
		return
	}

	if !h.broadcaster.AddClient(tenantCtx.TenantID, gatewayID, conn) {
		conn.Close()
		return
	}

	h.logger.Live().Info("Dashboard client connected",
		"tenantId", tenantCtx.TenantID, "gatewayId", gatewayID,
		"connections", h.broadcaster.GatewayConnectionCount(tenantCtx.TenantID, gatewayID))

	// Reader loop only detects disconnects; the feed is one-way.
	go func() {
		defer func() {
			h.broadcaster.RemoveClient(tenantCtx.TenantID, gatewayID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Package messaging provides the websocket hub for live creator
// dashboard updates.
package messaging

import (
	"sync"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
	"github.com/gorilla/websocket"
)

// LiveBroadcaster manages tenant-scoped, gateway-specific websocket
// connections for creator dashboards.
type LiveBroadcaster struct {
	tenantGateways map[string]map[string][]*liveClient // tenantId -> gatewayId -> clients
	mu             sync.Mutex
	logger         *logging.ChanneledLogger
}

type liveClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewLiveBroadcaster creates a new LiveBroadcaster instance.
func NewLiveBroadcaster(logger *logging.ChanneledLogger) *LiveBroadcaster {
	return &LiveBroadcaster{
		tenantGateways: make(map[string]map[string][]*liveClient),
		logger:         logger,
	}
}

// AddClient registers a websocket connection watching a gateway.
// Returns false when the per-gateway connection limit is reached.
func (b *LiveBroadcaster) AddClient(tenantID, gatewayID string, conn *websocket.Conn) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tenantGateways[tenantID] == nil {
		b.tenantGateways[tenantID] = make(map[string][]*liveClient)
	}

	if len(b.tenantGateways[tenantID][gatewayID]) >= config.MaxLiveConnectionsPerGateway {
		return false
	}

	b.tenantGateways[tenantID][gatewayID] = append(b.tenantGateways[tenantID][gatewayID], &liveClient{conn: conn})
	b.logger.Live().Debug("Live client registered", "tenantId", tenantID, "gatewayId", gatewayID)
	return true
}

// RemoveClient unregisters a websocket connection.
func (b *LiveBroadcaster) RemoveClient(tenantID, gatewayID string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	gateways, exists := b.tenantGateways[tenantID]
	if !exists {
		return
	}

	clients := gateways[gatewayID]
	remaining := make([]*liveClient, 0, len(clients))
	for _, client := range clients {
		if client.conn != conn {
			remaining = append(remaining, client)
		}
	}

	if len(remaining) == 0 {
		delete(gateways, gatewayID)
		if len(gateways) == 0 {
			delete(b.tenantGateways, tenantID)
		}
	} else {
		gateways[gatewayID] = remaining
	}

	b.logger.Live().Debug("Live client unregistered", "tenantId", tenantID, "gatewayId", gatewayID)
}

// BroadcastToGateway pushes an event to every client watching a
// gateway. Failed writes evict the client; the request path is never
// blocked on a slow consumer beyond the write timeout.
func (b *LiveBroadcaster) BroadcastToGateway(tenantID, gatewayID string, event ProgressEvent) {
	b.mu.Lock()
	clients := append([]*liveClient(nil), b.tenantGateways[tenantID][gatewayID]...)
	b.mu.Unlock()

	if len(clients) == 0 {
		return
	}

	var failed []*websocket.Conn
	for _, client := range clients {
		client.writeMu.Lock()
		client.conn.SetWriteDeadline(time.Now().Add(config.LiveWriteTimeout))
		err := client.conn.WriteJSON(event)
		client.writeMu.Unlock()

		if err != nil {
			b.logger.Live().Debug("Live write failed, evicting client", "tenantId", tenantID, "gatewayId", gatewayID, "error", err.Error())
			failed = append(failed, client.conn)
		}
	}

	for _, conn := range failed {
		conn.Close()
		b.RemoveClient(tenantID, gatewayID, conn)
	}
}

// GatewayConnectionCount returns the number of clients watching a gateway.
func (b *LiveBroadcaster) GatewayConnectionCount(tenantID, gatewayID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tenantGateways[tenantID][gatewayID])
}

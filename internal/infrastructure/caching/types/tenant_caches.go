// Package types defines the per-tenant cache structures.
package types

import (
	"sync"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
)

// TenantSessionCache holds the live visitor sessions for a single
// tenant. All mutation of a session happens under Mu; this is the one
// serialization point that keeps concurrent completedTasks merges from
// losing writes.
type TenantSessionCache struct {
	Sessions   map[string]*gateway.Session // sessionId -> session
	LastLoaded time.Time
	Mu         sync.RWMutex // Exported for access
}

// TenantGatewayCache holds warmed gateway definitions for a tenant.
type TenantGatewayCache struct {
	Gateways   map[string]*gateway.Gateway // gatewayId -> definition
	LastLoaded time.Time
	Mu         sync.RWMutex
}

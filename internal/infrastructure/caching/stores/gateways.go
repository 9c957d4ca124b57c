package stores

import (
	"sync"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/caching/types"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

// GatewaysStore caches warmed gateway definitions with tenant isolation
type GatewaysStore struct {
	tenantCaches map[string]*types.TenantGatewayCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
	now          func() time.Time
}

// NewGatewaysStore creates a new gateway definitions cache store
func NewGatewaysStore(logger *logging.ChanneledLogger) *GatewaysStore {
	return &GatewaysStore{
		tenantCaches: make(map[string]*types.TenantGatewayCache),
		logger:       logger,
		now:          time.Now,
	}
}

// InitializeTenant creates cache structures for a tenant
func (gs *GatewaysStore) InitializeTenant(tenantID string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.tenantCaches[tenantID] == nil {
		gs.tenantCaches[tenantID] = &types.TenantGatewayCache{
			Gateways:   make(map[string]*gateway.Gateway),
			LastLoaded: gs.now().UTC(),
		}
	}
}

// GetTenantCache safely retrieves a tenant's gateway cache
func (gs *GatewaysStore) GetTenantCache(tenantID string) (*types.TenantGatewayCache, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	cache, exists := gs.tenantCaches[tenantID]
	return cache, exists
}

// GetGateway retrieves a gateway definition by ID
func (gs *GatewaysStore) GetGateway(tenantID, gatewayID string) (*gateway.Gateway, bool) {
	start := gs.now()
	cache, exists := gs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if gs.now().Sub(cache.LastLoaded) > config.GatewayCacheTTL {
		if gs.logger != nil {
			gs.logger.Cache().Debug("Cache operation", "operation", "get", "type", "gateway", "tenantId", tenantID, "gatewayId", gatewayID, "hit", false, "reason", "expired", "duration", time.Since(start))
		}
		return nil, false
	}

	gw, found := cache.Gateways[gatewayID]
	if gs.logger != nil {
		gs.logger.Cache().Debug("Cache operation", "operation", "get", "type", "gateway", "tenantId", tenantID, "gatewayId", gatewayID, "hit", found, "duration", time.Since(start))
	}
	if !found {
		return nil, false
	}
	return snapshotGateway(gw), true
}

// SetGateway stores a gateway definition
func (gs *GatewaysStore) SetGateway(tenantID string, gw *gateway.Gateway) {
	cache, exists := gs.GetTenantCache(tenantID)
	if !exists {
		gs.InitializeTenant(tenantID)
		cache, _ = gs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Gateways[gw.ID] = gw
	cache.LastLoaded = gs.now().UTC()
}

// snapshotGateway copies a gateway so callers never mutate the cached
// record outside the lock.
func snapshotGateway(g *gateway.Gateway) *gateway.Gateway {
	copied := *g
	copied.Stages = append([]gateway.Stage(nil), g.Stages...)
	return &copied
}

// RemoveGateway evicts a gateway definition
func (gs *GatewaysStore) RemoveGateway(tenantID, gatewayID string) {
	cache, exists := gs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	delete(cache.Gateways, gatewayID)
}

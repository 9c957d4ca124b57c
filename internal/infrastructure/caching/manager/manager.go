// Package manager provides the unified cache manager facade that
// coordinates the per-concern cache stores.
package manager

import (
	"github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/caching/stores"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
)

// Manager coordinates all cache stores with tenant isolation
type Manager struct {
	sessions *stores.SessionsStore
	gateways *stores.GatewaysStore
	logger   *logging.ChanneledLogger
}

// NewManager creates a cache manager with all stores initialized
func NewManager(logger *logging.ChanneledLogger) *Manager {
	return &Manager{
		sessions: stores.NewSessionsStore(logger),
		gateways: stores.NewGatewaysStore(logger),
		logger:   logger,
	}
}

// InitializeTenant creates cache structures for a tenant across all stores
func (m *Manager) InitializeTenant(tenantID string) {
	m.sessions.InitializeTenant(tenantID)
	m.gateways.InitializeTenant(tenantID)
}

// Sessions exposes the sessions store, primarily for cleanup and tests.
func (m *Manager) Sessions() *stores.SessionsStore { return m.sessions }

// Session operations

func (m *Manager) GetSession(tenantID, sessionID string) (*gateway.Session, bool) {
	return m.sessions.GetSession(tenantID, sessionID)
}

func (m *Manager) UpsertSession(tenantID string, session *gateway.Session) {
	m.sessions.UpsertSession(tenantID, session)
}

func (m *Manager) MergeSession(tenantID, sessionID string, taskIDs []string, stage *int) (*gateway.Session, bool) {
	return m.sessions.MergeSession(tenantID, sessionID, taskIDs, stage)
}

func (m *Manager) CompleteSession(tenantID, sessionID string) (*gateway.Session, bool) {
	return m.sessions.CompleteSession(tenantID, sessionID)
}

func (m *Manager) PurgeExpiredSessions(tenantID string) int {
	return m.sessions.PurgeExpired(tenantID)
}

func (m *Manager) SessionCount(tenantID string) int {
	return m.sessions.SessionCount(tenantID)
}

// Gateway definition operations

func (m *Manager) GetGateway(tenantID, gatewayID string) (*gateway.Gateway, bool) {
	return m.gateways.GetGateway(tenantID, gatewayID)
}

func (m *Manager) SetGateway(tenantID string, gw *gateway.Gateway) {
	m.gateways.SetGateway(tenantID, gw)
}

func (m *Manager) RemoveGateway(tenantID, gatewayID string) {
	m.gateways.RemoveGateway(tenantID, gatewayID)
}

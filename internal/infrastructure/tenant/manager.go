package tenant

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/caching/manager"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/persistence/analytics"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/persistence/database"
	persistenceGateway "github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/persistence/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/security"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

// Manager coordinates tenant activation and context creation
type Manager struct {
	cacheManager *manager.Manager
	contexts     map[string]*Context
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewManager creates and initializes a new tenant manager.
func NewManager(logger *logging.ChanneledLogger) *Manager {
	return &Manager{
		cacheManager: manager.NewManager(logger),
		contexts:     make(map[string]*Context),
		logger:       logger,
	}
}

// GetCacheManager returns the shared cache manager
func (m *Manager) GetCacheManager() *manager.Manager {
	return m.cacheManager
}

// GetContext retrieves an activated tenant context by ID.
func (m *Manager) GetContext(tenantID string) (*Context, error) {
	m.mu.RLock()
	ctx, exists := m.contexts[tenantID]
	m.mu.RUnlock()
	if exists {
		return ctx, nil
	}
	return m.ActivateTenant(tenantID)
}

// ActivateTenant loads a tenant's config, opens its database, bootstraps
// the schema, and initializes its caches. Idempotent per tenant.
func (m *Manager) ActivateTenant(tenantID string) (*Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx, exists := m.contexts[tenantID]; exists {
		return ctx, nil
	}

	cfg, err := LoadTenantConfig(tenantID, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant config: %w", err)
	}

	db, err := m.openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open tenant database: %w", err)
	}

	if err := db.Bootstrap(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap tenant schema: %w", err)
	}

	codec, err := security.NewStageTokenCodec(cfg.AESSecret, cfg.TokenSalt, config.StageTokenMaxAge, config.CompletedTokenMaxAge)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build stage token codec: %w", err)
	}

	m.cacheManager.InitializeTenant(tenantID)

	ctx := &Context{
		TenantID:     tenantID,
		Config:       cfg,
		Database:     db,
		CacheManager: m.cacheManager,
		SessionRepo:  persistenceGateway.NewSQLSessionRepository(db, m.logger),
		GatewayRepo:  persistenceGateway.NewSQLGatewayRepository(db, m.logger),
		EventRepo:    analytics.NewSQLEventRepository(db, m.logger),
		StageCodec:   codec,
	}
	m.contexts[tenantID] = ctx

	m.logger.Tenant().Info("Tenant activated", "tenantId", tenantID, "turso", cfg.TursoEnabled)
	return ctx, nil
}

// ActivateAllTenants activates every tenant with a config directory,
// provisioning the default tenant first if none exist.
func (m *Manager) ActivateAllTenants() (int, error) {
	tenants, err := ListTenants()
	if err != nil {
		return 0, err
	}

	if len(tenants) == 0 {
		if _, err := ProvisionDefaultTenant(m.logger); err != nil {
			return 0, fmt.Errorf("failed to provision default tenant: %w", err)
		}
		tenants = []string{DefaultTenantID}
	}

	activated := 0
	for _, tenantID := range tenants {
		if _, err := m.ActivateTenant(tenantID); err != nil {
			m.logger.Tenant().Error("Tenant activation failed", "tenantId", tenantID, "error", err.Error())
			continue
		}
		activated++
	}

	if activated == 0 {
		return 0, fmt.Errorf("no tenants could be activated")
	}
	return activated, nil
}

// ActiveTenantIDs returns the IDs of all activated tenants.
func (m *Manager) ActiveTenantIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.contexts))
	for id := range m.contexts {
		ids = append(ids, id)
	}
	return ids
}

// Close shuts down all tenant contexts.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for id, ctx := range m.contexts {
		if err := ctx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.contexts, id)
	}
	return firstErr
}

func (m *Manager) openDatabase(cfg *Config) (*database.DB, error) {
	if cfg.TursoEnabled && cfg.TursoDatabase != "" && cfg.TursoToken != "" {
		connStr := cfg.TursoDatabase + "?authToken=" + cfg.TursoToken
		return database.NewConnectionWithLogger("libsql", connStr, m.logger)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return database.NewConnectionWithLogger("sqlite3", cfg.SQLitePath, m.logger)
}

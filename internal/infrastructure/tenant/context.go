package tenant

import (
	domain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/caching/manager"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/persistence/database"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/security"
)

// Context holds tenant-specific request context: configuration, database
// connection, repositories, and the shared cache manager.
type Context struct {
	TenantID     string
	Config       *Config
	Database     *database.DB
	CacheManager *manager.Manager

	SessionRepo domain.SessionRepository
	GatewayRepo domain.GatewayRepository
	EventRepo   domain.EventRepository

	StageCodec *security.StageTokenCodec
}

// Close cleans up the tenant context
func (ctx *Context) Close() error {
	if ctx.Database != nil {
		return ctx.Database.Close()
	}
	return nil
}

// IsActive returns true if the tenant is active
func (ctx *Context) IsActive() bool {
	return ctx.Config != nil && ctx.Config.Status == "active"
}

// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/caching/types"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
)

// SessionsStore implements session caching operations with tenant isolation
type SessionsStore struct {
	tenantCaches map[string]*types.TenantSessionCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
	now          func() time.Time
}

// NewSessionsStore creates a new sessions cache store
func NewSessionsStore(logger *logging.ChanneledLogger) *SessionsStore {
	if logger != nil {
		logger.Cache().Info("Initializing sessions cache store")
	}
	return &SessionsStore{
		tenantCaches: make(map[string]*types.TenantSessionCache),
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the store's time source. Used by tests.
func (ss *SessionsStore) WithClock(now func() time.Time) *SessionsStore {
	ss.now = now
	return ss
}

// InitializeTenant creates cache structures for a tenant
func (ss *SessionsStore) InitializeTenant(tenantID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.tenantCaches[tenantID] == nil {
		ss.tenantCaches[tenantID] = &types.TenantSessionCache{
			Sessions:   make(map[string]*gateway.Session),
			LastLoaded: ss.now().UTC(),
		}

		if ss.logger != nil {
			ss.logger.Cache().Info("Tenant session cache initialized", "tenantId", tenantID)
		}
	}
}

// GetTenantCache safely retrieves a tenant's session cache
func (ss *SessionsStore) GetTenantCache(tenantID string) (*types.TenantSessionCache, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	cache, exists := ss.tenantCaches[tenantID]
	return cache, exists
}

func (ss *SessionsStore) ensureTenantCache(tenantID string) *types.TenantSessionCache {
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		ss.InitializeTenant(tenantID)
		cache, _ = ss.GetTenantCache(tenantID)
	}
	return cache
}

// UpsertSession stores a session record for a tenant
func (ss *SessionsStore) UpsertSession(tenantID string, session *gateway.Session) {
	start := ss.now()
	cache := ss.ensureTenantCache(tenantID)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Sessions[session.ID] = session
	cache.LastLoaded = ss.now().UTC()

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "upsert", "type", "session", "tenantId", tenantID, "sessionId", session.ID, "duration", time.Since(start))
	}
}

// GetSession retrieves a session by ID. Sessions past their logical TTL
// report a miss even though the record may still be resident.
func (ss *SessionsStore) GetSession(tenantID, sessionID string) (*gateway.Session, bool) {
	start := ss.now()
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "tenantId", tenantID, "sessionId", sessionID, "hit", false, "reason", "tenant_not_initialized", "duration", time.Since(start))
		}
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	session, found := cache.Sessions[sessionID]
	if !found {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "tenantId", tenantID, "sessionId", sessionID, "hit", false, "duration", time.Since(start))
		}
		return nil, false
	}

	if session.IsExpired(ss.now().UTC()) {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "tenantId", tenantID, "sessionId", sessionID, "hit", false, "reason", "expired", "duration", time.Since(start))
		}
		return nil, false
	}

	snapshot := snapshotSession(session)
	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "tenantId", tenantID, "sessionId", sessionID, "hit", true, "duration", time.Since(start))
	}
	return snapshot, true
}

// MergeSession applies a merge-update to a session atomically: supplied
// task IDs are added to the completed set (deduplicated), and the stage,
// if given, replaces the stored value. UpdatedAt is always refreshed.
// Returns a snapshot of the merged session.
func (ss *SessionsStore) MergeSession(tenantID, sessionID string, taskIDs []string, stage *int) (*gateway.Session, bool) {
	start := ss.now()
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	session, found := cache.Sessions[sessionID]
	if !found || session.IsExpired(ss.now().UTC()) {
		return nil, false
	}

	added := session.MergeTasks(taskIDs)
	if stage != nil {
		session.CurrentStage = *stage
	}
	session.UpdatedAt = ss.now().UTC()

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "merge", "type", "session", "tenantId", tenantID, "sessionId", sessionID, "tasksAdded", added, "stageSet", stage != nil, "duration", time.Since(start))
	}
	return snapshotSession(session), true
}

// CompleteSession marks a session's gateway as completed. Idempotent:
// a second call leaves the original completion timestamp in place.
func (ss *SessionsStore) CompleteSession(tenantID, sessionID string) (*gateway.Session, bool) {
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	session, found := cache.Sessions[sessionID]
	if !found || session.IsExpired(ss.now().UTC()) {
		return nil, false
	}

	if !session.Completed {
		session.Completed = true
		completedAt := ss.now().UTC()
		session.CompletedAt = &completedAt
		session.UpdatedAt = completedAt
	}

	return snapshotSession(session), true
}

// PurgeExpired evicts sessions past their logical TTL. Returns the
// number of sessions removed.
func (ss *SessionsStore) PurgeExpired(tenantID string) int {
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return 0
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	now := ss.now().UTC()
	removed := 0
	for id, session := range cache.Sessions {
		if session.IsExpired(now) {
			delete(cache.Sessions, id)
			removed++
		}
	}

	if removed > 0 && ss.logger != nil {
		ss.logger.Cache().Info("Purged expired sessions", "tenantId", tenantID, "count", removed)
	}
	return removed
}

// SessionCount returns the number of resident sessions for a tenant,
// including logically expired sessions that have not yet been purged.
func (ss *SessionsStore) SessionCount(tenantID string) int {
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return 0
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()
	return len(cache.Sessions)
}

// snapshotSession copies a session so callers never share the cached
// record's CompletedTasks slice outside the lock.
func snapshotSession(s *gateway.Session) *gateway.Session {
	copied := *s
	copied.CompletedTasks = append([]string(nil), s.CompletedTasks...)
	return &copied
}

package services

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/caching/manager"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/security"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

const testTenantID = "default"

type fakeSessionRepo struct {
	mu         sync.Mutex
	sessions   map[string]*gatewayDomain.Session
	failCreate bool
	failUpdate bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*gatewayDomain.Session)}
}

func (r *fakeSessionRepo) Create(session *gatewayDomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return gatewayDomain.ErrStoreUnavailable
	}
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByID(id string) (*gatewayDomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, gatewayDomain.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) Update(session *gatewayDomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate {
		return gatewayDomain.ErrStoreUnavailable
	}
	if _, ok := r.sessions[session.ID]; !ok {
		return gatewayDomain.ErrSessionNotFound
	}
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

type fakeGatewayRepo struct {
	mu       sync.Mutex
	gateways map[string]*gatewayDomain.Gateway
}

func newFakeGatewayRepo() *fakeGatewayRepo {
	return &fakeGatewayRepo{gateways: make(map[string]*gatewayDomain.Gateway)}
}

func (r *fakeGatewayRepo) Create(gw *gatewayDomain.Gateway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[gw.ID] = gw
	return nil
}

func (r *fakeGatewayRepo) GetByID(id string) (*gatewayDomain.Gateway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gw, ok := r.gateways[id]
	if !ok {
		return nil, gatewayDomain.ErrGatewayNotFound
	}
	return gw, nil
}

func (r *fakeGatewayRepo) ListByCreator(creatorID string) ([]*gatewayDomain.Gateway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*gatewayDomain.Gateway
	for _, gw := range r.gateways {
		if gw.CreatorID == creatorID {
			out = append(out, gw)
		}
	}
	return out, nil
}

func (r *fakeGatewayRepo) Update(gw *gatewayDomain.Gateway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gateways[gw.ID]; !ok {
		return gatewayDomain.ErrGatewayNotFound
	}
	r.gateways[gw.ID] = gw
	return nil
}

func (r *fakeGatewayRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.gateways, id)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*gatewayDomain.TaskEvent
	fail   bool
}

func (r *fakeEventRepo) StoreTaskEvent(event *gatewayDomain.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return gatewayDomain.ErrStoreUnavailable
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeEventRepo) byAction(action string) []*gatewayDomain.TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*gatewayDomain.TaskEvent
	for _, e := range r.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires the full service stack against in-memory fakes with a
// controllable clock shared by every component.
type testEnv struct {
	tenantCtx   *tenant.Context
	sessionRepo *fakeSessionRepo
	gatewayRepo *fakeGatewayRepo
	eventRepo   *fakeEventRepo
	gatewaySvc  *GatewayService
	sessionSvc  *SessionService
	analytics   *AnalyticsService
	progression *ProgressionService
	auth        *AuthService
	current     time.Time
}

func (e *testEnv) clock() time.Time { return e.current }

func (e *testEnv) advanceClock(d time.Duration) { e.current = e.current.Add(d) }

func quietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		DefaultLevel:    slog.LevelError + 4,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	require.NoError(t, err)
	return logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		sessionRepo: newFakeSessionRepo(),
		gatewayRepo: newFakeGatewayRepo(),
		eventRepo:   &fakeEventRepo{},
		current:     time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}

	logger := quietLogger(t)
	tracker := performance.NewTracker(nil)

	cacheManager := manager.NewManager(logger)
	cacheManager.InitializeTenant(testTenantID)
	cacheManager.Sessions().WithClock(env.clock)

	codec, err := security.NewStageTokenCodec("test-secret", "test-salt", config.StageTokenMaxAge, config.CompletedTokenMaxAge)
	require.NoError(t, err)
	codec.WithClock(env.clock)

	env.tenantCtx = &tenant.Context{
		TenantID: testTenantID,
		Config: &tenant.Config{
			TenantID:      testTenantID,
			Status:        "active",
			JWTSecret:     "jwt-test-secret",
			AdminPassword: "letmein-admin",
		},
		CacheManager: cacheManager,
		SessionRepo:  env.sessionRepo,
		GatewayRepo:  env.gatewayRepo,
		EventRepo:    env.eventRepo,
		StageCodec:   codec,
	}

	env.gatewaySvc = NewGatewayService(logger, tracker).WithClock(env.clock)
	env.sessionSvc = NewSessionService(logger, tracker, env.gatewaySvc).WithClock(env.clock)
	env.analytics = NewAnalyticsService(logger, tracker, env.sessionSvc).WithClock(env.clock)
	env.progression = NewProgressionService(logger, tracker, env.sessionSvc, env.gatewaySvc, env.analytics, nil, nil).WithClock(env.clock)
	env.auth = NewAuthService(logger)
	return env
}

// seedGateway registers a gateway with the given number of single-task
// stages directly in the fake repo and cache.
func (e *testEnv) seedGateway(t *testing.T, id string, totalStages int) *gatewayDomain.Gateway {
	t.Helper()
	stages := make([]gatewayDomain.Stage, totalStages)
	for i := range stages {
		stages[i] = gatewayDomain.Stage{
			Index: i,
			Title: "Stage",
			Tasks: []gatewayDomain.Task{{ID: "t" + string(rune('0'+i)), Kind: "link_visit", Label: "Visit"}},
		}
	}
	gw := &gatewayDomain.Gateway{
		ID:          id,
		CreatorID:   "creator-1",
		Title:       "Test Gateway",
		RewardURL:   "https://rewards.example/unlock",
		TotalStages: totalStages,
		Stages:      stages,
		IsActive:    true,
		CreatedAt:   e.current,
		UpdatedAt:   e.current,
	}
	require.NoError(t, e.gatewayRepo.Create(gw))
	e.tenantCtx.CacheManager.SetGateway(testTenantID, gw)
	return gw
}

func (e *testEnv) openSession(t *testing.T, gatewayID string) *SessionEnvelope {
	t.Helper()
	envelope, err := e.sessionSvc.CreateSession(&CreateSessionRequest{GatewayID: gatewayID}, e.tenantCtx)
	require.NoError(t, err)
	return envelope
}

// evictSession drops a session from the cache only, leaving the
// durable copy in the fake repo. Used to model a node restart.
func (e *testEnv) evictSession(sessionID string) {
	cache, ok := e.tenantCtx.CacheManager.Sessions().GetTenantCache(testTenantID)
	if !ok {
		return
	}
	cache.Mu.Lock()
	delete(cache.Sessions, sessionID)
	cache.Mu.Unlock()
}

func securityClaims(gatewayID, sessionID string, stage int) security.StageClaims {
	return security.StageClaims{GatewayID: gatewayID, SessionID: sessionID, Stage: stage}
}

func requireIs(t *testing.T, err, target error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, target), "expected %v, got %v", target, err)
}

package services

import (
	"errors"
	"time"

	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/security"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

// CreateSessionRequest starts a visitor session against a gateway.
type CreateSessionRequest struct {
	GatewayID string                       `json:"gatewayId"`
	UserID    *string                      `json:"userId,omitempty"`
	Metadata  *gatewayDomain.EventMetadata `json:"-"`
}

// SessionEnvelope pairs a session snapshot with its current stage token.
type SessionEnvelope struct {
	Session *gatewayDomain.Session `json:"session"`
	Token   string                 `json:"token"`
}

// SessionService manages visitor session lifecycle. The cache is the
// authoritative runtime store; the database is write-through durability
// so sessions survive a restart.
type SessionService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	gateways    *GatewayService
	now         func() time.Time
}

// NewSessionService creates the session lifecycle service.
func NewSessionService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, gateways *GatewayService) *SessionService {
	return &SessionService{
		logger:      logger,
		perfTracker: perfTracker,
		gateways:    gateways,
		now:         time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// CreateSession opens a fresh session at stage 0 for an active gateway
// and mints its initial stage token.
func (s *SessionService) CreateSession(req *CreateSessionRequest, tenantCtx *tenant.Context) (*SessionEnvelope, error) {
	marker := s.perfTracker.StartOperation("create_session", tenantCtx.TenantID)
	defer marker.Complete()

	gw, err := s.gateways.GetGateway(req.GatewayID, tenantCtx)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if !gw.IsActive {
		marker.SetError(gatewayDomain.ErrGatewayNotFound)
		return nil, gatewayDomain.ErrGatewayNotFound
	}

	now := s.now().UTC()
	session := &gatewayDomain.Session{
		ID:             security.GenerateULID(),
		GatewayID:      gw.ID,
		UserID:         req.UserID,
		CompletedTasks: []string{},
		CurrentStage:   0,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(config.SessionTTL),
	}

	if err := tenantCtx.SessionRepo.Create(session); err != nil {
		marker.SetError(err)
		return nil, err
	}
	tenantCtx.CacheManager.UpsertSession(tenantCtx.TenantID, session)

	token, err := s.mintToken(session, tenantCtx)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.logger.WithTenant(logging.ChannelGateway, tenantCtx.TenantID).Info("Session created",
		"sessionId", session.ID, "gatewayId", gw.ID)
	marker.SetSuccess(true)
	return &SessionEnvelope{Session: session, Token: token}, nil
}

// GetSession resolves a live session, cache first. A database fallback
// re-warms the cache so a restarted node can resume in-flight sessions.
// Expired sessions are reported as not found on either path.
func (s *SessionService) GetSession(sessionID string, tenantCtx *tenant.Context) (*gatewayDomain.Session, error) {
	if session, found := tenantCtx.CacheManager.GetSession(tenantCtx.TenantID, sessionID); found {
		return session, nil
	}

	session, err := tenantCtx.SessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(s.now().UTC()) {
		return nil, gatewayDomain.ErrSessionNotFound
	}
	tenantCtx.CacheManager.UpsertSession(tenantCtx.TenantID, session)
	s.logger.WithTenant(logging.ChannelCache, tenantCtx.TenantID).Debug("Session re-warmed from database", "sessionId", sessionID)
	return session, nil
}

// RefreshToken re-mints the stage token for a live session without
// changing any session state. Used when a visitor reloads the page.
func (s *SessionService) RefreshToken(sessionID string, tenantCtx *tenant.Context) (*SessionEnvelope, error) {
	session, err := s.GetSession(sessionID, tenantCtx)
	if err != nil {
		return nil, err
	}
	token, err := s.mintToken(session, tenantCtx)
	if err != nil {
		return nil, err
	}
	return &SessionEnvelope{Session: session, Token: token}, nil
}

// PersistSession writes a session snapshot through to the database,
// mapping a vanished row back to not found.
func (s *SessionService) PersistSession(session *gatewayDomain.Session, tenantCtx *tenant.Context) error {
	err := tenantCtx.SessionRepo.Update(session)
	if err != nil && !errors.Is(err, gatewayDomain.ErrSessionNotFound) {
		s.logger.WithTenant(logging.ChannelDatabase, tenantCtx.TenantID).Error("Session write-through failed",
			"sessionId", session.ID, "error", err.Error())
	}
	return err
}

func (s *SessionService) mintToken(session *gatewayDomain.Session, tenantCtx *tenant.Context) (string, error) {
	claims := security.StageClaims{
		GatewayID: session.GatewayID,
		SessionID: session.ID,
		Stage:     session.CurrentStage,
		Completed: session.Completed,
	}
	if session.UserID != nil {
		claims.UserID = *session.UserID
	}
	return tenantCtx.StageCodec.Mint(claims)
}

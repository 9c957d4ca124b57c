package services

import (
	"time"

	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/messaging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

// AdvanceRequest asks to move a session forward by exactly one stage.
// The token is the proof of current position; NextStage is the stage
// the client claims to have reached.
type AdvanceRequest struct {
	Token     string                       `json:"token"`
	SessionID string                       `json:"sessionId,omitempty"`
	NextStage int                          `json:"nextStage"`
	Metadata  *gatewayDomain.EventMetadata `json:"-"`
}

// AdvanceResult is the outcome of a successful stage advance. RewardURL
// is populated only when the advance completed the gateway.
type AdvanceResult struct {
	Token     string `json:"token"`
	Stage     int    `json:"stage"`
	Completed bool   `json:"completed"`
	RewardURL string `json:"rewardUrl,omitempty"`
}

// ProgressionService enforces the strict +1 stage progression state
// machine. Every advance consumes a fresh stage token and mints the
// next one, so a token can never be replayed to advance twice.
type ProgressionService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	sessions    *SessionService
	gateways    *GatewayService
	analytics   *AnalyticsService
	broadcaster messaging.Broadcaster
	notifier    *NotificationService
	now         func() time.Time
}

// NewProgressionService wires the progression state machine. Analytics,
// broadcaster, and notifier are best-effort collaborators and may be
// nil.
func NewProgressionService(
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	sessions *SessionService,
	gateways *GatewayService,
	analytics *AnalyticsService,
	broadcaster messaging.Broadcaster,
	notifier *NotificationService,
) *ProgressionService {
	return &ProgressionService{
		logger:      logger,
		perfTracker: perfTracker,
		sessions:    sessions,
		gateways:    gateways,
		analytics:   analytics,
		broadcaster: broadcaster,
		notifier:    notifier,
		now:         time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *ProgressionService) WithClock(now func() time.Time) *ProgressionService {
	s.now = now
	return s
}

// AdvanceStage validates a stage token and moves the session from stage
// N to N+1. All checks run before any state changes, so a rejected
// advance leaves the session untouched. Token identity must match the
// request, the claimed stage must be exactly one past the token's, the
// token must be fresh within the advance window, and the session must
// agree with the token about the current stage. Reaching the final
// stage marks the session completed and reveals the reward URL.
func (s *ProgressionService) AdvanceStage(req *AdvanceRequest, tenantCtx *tenant.Context) (*AdvanceResult, error) {
	marker := s.perfTracker.StartOperation("advance_stage", tenantCtx.TenantID)
	defer marker.Complete()

	claims, err := tenantCtx.StageCodec.Parse(req.Token)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if req.SessionID != "" && req.SessionID != claims.SessionID {
		marker.SetError(gatewayDomain.ErrTokenMalformed)
		return nil, gatewayDomain.ErrTokenMalformed
	}

	session, err := s.sessions.GetSession(claims.SessionID, tenantCtx)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if session.GatewayID != claims.GatewayID {
		marker.SetError(gatewayDomain.ErrTokenMalformed)
		return nil, gatewayDomain.ErrTokenMalformed
	}

	if session.Completed || claims.Completed {
		marker.SetError(gatewayDomain.ErrAlreadyCompleted)
		return nil, gatewayDomain.ErrAlreadyCompleted
	}

	// Strict +1: the only legal claim is one stage past the token.
	if req.NextStage != claims.Stage+1 {
		marker.SetError(gatewayDomain.ErrInvalidProgression)
		return nil, gatewayDomain.ErrInvalidProgression
	}

	// A stale token whose stage the session already moved past would
	// otherwise replay an advance that already happened.
	if claims.Stage != session.CurrentStage {
		marker.SetError(gatewayDomain.ErrInvalidProgression)
		return nil, gatewayDomain.ErrInvalidProgression
	}

	if tenantCtx.StageCodec.Age(claims) > config.AdvanceWindow {
		marker.SetError(gatewayDomain.ErrTokenExpired)
		return nil, gatewayDomain.ErrTokenExpired
	}

	gw, err := s.gateways.GetGateway(session.GatewayID, tenantCtx)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if req.NextStage > gw.TotalStages {
		marker.SetError(gatewayDomain.ErrInvalidProgression)
		return nil, gatewayDomain.ErrInvalidProgression
	}

	nextStage := req.NextStage
	completed := nextStage >= gw.TotalStages

	// Durability commits before the cache moves. A failed write-through
	// must leave the session at its previous stage so the caller's token
	// stays valid for a retry once the store recovers.
	now := s.now().UTC()
	advanced := *session
	advanced.CurrentStage = nextStage
	advanced.UpdatedAt = now
	if completed {
		advanced.Completed = true
		completedAt := now
		advanced.CompletedAt = &completedAt
	}
	if err := s.sessions.PersistSession(&advanced, tenantCtx); err != nil {
		marker.SetError(err)
		return nil, err
	}

	if merged, ok := tenantCtx.CacheManager.MergeSession(tenantCtx.TenantID, session.ID, nil, &nextStage); ok {
		session = merged
		if completed {
			if done, ok := tenantCtx.CacheManager.CompleteSession(tenantCtx.TenantID, session.ID); ok {
				session = done
			}
		}
	} else {
		// Evicted between the read and the commit. The durable row is
		// current and the next read re-warms the cache from it.
		session = &advanced
	}

	token, err := s.sessions.mintToken(session, tenantCtx)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.recordAdvance(session, gw, nextStage, completed, req.Metadata, tenantCtx)

	result := &AdvanceResult{Token: token, Stage: nextStage, Completed: completed}
	if completed {
		result.RewardURL = gw.RewardURL
	}
	marker.AddMetadata("stage", nextStage)
	marker.SetSuccess(true)
	return result, nil
}

// recordAdvance fans the advance out to analytics, live dashboards, and
// completion notifications. All best-effort.
func (s *ProgressionService) recordAdvance(session *gatewayDomain.Session, gw *gatewayDomain.Gateway, stage int, completed bool, metadata *gatewayDomain.EventMetadata, tenantCtx *tenant.Context) {
	action := gatewayDomain.ActionStageAdvance
	if completed {
		action = gatewayDomain.ActionGatewayDone
	}

	if s.analytics != nil {
		s.analytics.RecordTaskEvent(&RecordEventRequest{
			SessionID: session.ID,
			GatewayID: gw.ID,
			Action:    action,
			Stage:     stage,
			Metadata:  metadata,
		}, tenantCtx)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToGateway(tenantCtx.TenantID, gw.ID, messaging.ProgressEvent{
			Type:      action,
			GatewayID: gw.ID,
			SessionID: session.ID,
			Stage:     stage,
			Timestamp: s.now().UTC().Format(time.RFC3339),
		})
	}

	if completed {
		s.logger.WithTenant(logging.ChannelGateway, tenantCtx.TenantID).Info("Gateway completed",
			"sessionId", session.ID, "gatewayId", gw.ID)
		if s.notifier != nil {
			s.notifier.NotifyCompletion(gw, session, tenantCtx)
		}
	}
}

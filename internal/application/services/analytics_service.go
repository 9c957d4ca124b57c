package services

import (
	"time"

	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/security"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
)

// RecordEventRequest is the payload for an analytics event append.
type RecordEventRequest struct {
	SessionID string                       `json:"sessionId"`
	GatewayID string                       `json:"gatewayId"`
	TaskID    string                       `json:"taskId,omitempty"`
	Action    string                       `json:"action"`
	Stage     int                          `json:"stage,omitempty"`
	Metadata  *gatewayDomain.EventMetadata `json:"-"`
}

// AnalyticsService appends task events. Event appends are fire-and-
// forget: a storage failure is logged and swallowed so it can never
// fail the caller's primary operation.
type AnalyticsService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	sessions    *SessionService
	now         func() time.Time
}

// NewAnalyticsService creates the analytics recorder.
func NewAnalyticsService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, sessions *SessionService) *AnalyticsService {
	return &AnalyticsService{
		logger:      logger,
		perfTracker: perfTracker,
		sessions:    sessions,
		now:         time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// RecordTaskEvent appends an analytics event. Storage failures are
// swallowed; the returned error is always nil and exists only so
// callers can treat the recorder uniformly with fallible collaborators.
func (s *AnalyticsService) RecordTaskEvent(req *RecordEventRequest, tenantCtx *tenant.Context) error {
	event := &gatewayDomain.TaskEvent{
		ID:        security.GenerateULID(),
		SessionID: req.SessionID,
		GatewayID: req.GatewayID,
		TaskID:    req.TaskID,
		Action:    req.Action,
		Stage:     req.Stage,
		Metadata:  req.Metadata,
		CreatedAt: s.now().UTC(),
	}

	if err := tenantCtx.EventRepo.StoreTaskEvent(event); err != nil {
		s.logger.WithTenant(logging.ChannelAnalytics, tenantCtx.TenantID).Error("Event append failed",
			"action", req.Action, "sessionId", req.SessionID, "error", err.Error())
		return nil
	}

	s.logger.WithTenant(logging.ChannelAnalytics, tenantCtx.TenantID).Debug("Event recorded",
		"action", req.Action, "sessionId", req.SessionID, "taskId", req.TaskID)
	return nil
}

// CompleteTask marks a task done for a session and records the
// completion event. The merge is idempotent: repeating a task ID is a
// no-op on the session's completed set. The session must exist; the
// event append itself stays best-effort.
func (s *AnalyticsService) CompleteTask(req *RecordEventRequest, tenantCtx *tenant.Context) (*gatewayDomain.Session, error) {
	marker := s.perfTracker.StartOperation("complete_task", tenantCtx.TenantID)
	defer marker.Complete()

	session, err := s.sessions.GetSession(req.SessionID, tenantCtx)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	// The event is always attributed to the session's own gateway; a
	// request naming a different one is rejected outright.
	if req.GatewayID != "" && req.GatewayID != session.GatewayID {
		marker.SetError(gatewayDomain.ErrGatewayNotFound)
		return nil, gatewayDomain.ErrGatewayNotFound
	}
	req.GatewayID = session.GatewayID

	if req.TaskID != "" {
		merged, ok := tenantCtx.CacheManager.MergeSession(tenantCtx.TenantID, session.ID, []string{req.TaskID}, nil)
		if ok {
			session = merged
			// Durability for the merged set is best-effort here; the
			// next advance persists the full snapshot anyway.
			if err := s.sessions.PersistSession(session, tenantCtx); err != nil {
				s.logger.WithTenant(logging.ChannelAnalytics, tenantCtx.TenantID).Error("Task merge write-through failed",
					"sessionId", session.ID, "taskId", req.TaskID, "error", err.Error())
			}
		}
	}

	req.Action = gatewayDomain.ActionTaskComplete
	s.RecordTaskEvent(req, tenantCtx)

	marker.SetSuccess(true)
	return session, nil
}

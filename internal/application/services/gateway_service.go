// Package services contains the application-layer orchestration for
// gateway flows: gateway definitions, visitor sessions, stage
// progression, analytics, auth, and completion notifications.
package services

import (
	"fmt"
	"time"

	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/performance"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/security"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

// CreateGatewayRequest is the creator-facing payload for a new gateway.
type CreateGatewayRequest struct {
	CreatorID   string                 `json:"creatorId"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	RewardURL   string                 `json:"rewardUrl"`
	Stages      []gatewayDomain.Stage  `json:"stages"`
}

// UpdateGatewayRequest carries the editable fields of a gateway.
type UpdateGatewayRequest struct {
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	RewardURL   *string               `json:"rewardUrl,omitempty"`
	Stages      []gatewayDomain.Stage `json:"stages,omitempty"`
	IsActive    *bool                 `json:"isActive,omitempty"`
}

// GatewayService manages creator-defined gateway definitions with a
// cache-first read path and write-through persistence.
type GatewayService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	now         func() time.Time
}

// NewGatewayService creates the gateway definition service.
func NewGatewayService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *GatewayService {
	return &GatewayService{
		logger:      logger,
		perfTracker: perfTracker,
		now:         time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *GatewayService) WithClock(now func() time.Time) *GatewayService {
	s.now = now
	return s
}

// CreateGateway validates and persists a new gateway definition.
func (s *GatewayService) CreateGateway(req *CreateGatewayRequest, tenantCtx *tenant.Context) (*gatewayDomain.Gateway, error) {
	marker := s.perfTracker.StartOperation("create_gateway", tenantCtx.TenantID)
	defer marker.Complete()

	if err := validateStages(req.Stages); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if req.Title == "" || req.RewardURL == "" {
		err := fmt.Errorf("gateway requires a title and reward URL")
		marker.SetError(err)
		return nil, err
	}

	now := s.now().UTC()
	gw := &gatewayDomain.Gateway{
		ID:          security.GenerateULID(),
		CreatorID:   req.CreatorID,
		Title:       req.Title,
		Description: req.Description,
		RewardURL:   req.RewardURL,
		TotalStages: len(req.Stages),
		Stages:      req.Stages,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := tenantCtx.GatewayRepo.Create(gw); err != nil {
		marker.SetError(err)
		return nil, err
	}
	tenantCtx.CacheManager.SetGateway(tenantCtx.TenantID, gw)

	s.logger.WithTenant(logging.ChannelGateway, tenantCtx.TenantID).Info("Gateway created",
		"gatewayId", gw.ID, "creatorId", gw.CreatorID, "stages", gw.TotalStages)
	marker.SetSuccess(true)
	return gw, nil
}

// GetGateway resolves a gateway definition, cache first with a database
// fallback that re-warms the cache.
func (s *GatewayService) GetGateway(gatewayID string, tenantCtx *tenant.Context) (*gatewayDomain.Gateway, error) {
	if gw, found := tenantCtx.CacheManager.GetGateway(tenantCtx.TenantID, gatewayID); found {
		return gw, nil
	}

	gw, err := tenantCtx.GatewayRepo.GetByID(gatewayID)
	if err != nil {
		return nil, err
	}
	tenantCtx.CacheManager.SetGateway(tenantCtx.TenantID, gw)
	return gw, nil
}

// ListByCreator returns every gateway owned by a creator.
func (s *GatewayService) ListByCreator(creatorID string, tenantCtx *tenant.Context) ([]*gatewayDomain.Gateway, error) {
	return tenantCtx.GatewayRepo.ListByCreator(creatorID)
}

// UpdateGateway applies a partial update to an existing gateway.
func (s *GatewayService) UpdateGateway(gatewayID string, req *UpdateGatewayRequest, tenantCtx *tenant.Context) (*gatewayDomain.Gateway, error) {
	marker := s.perfTracker.StartOperation("update_gateway", tenantCtx.TenantID)
	defer marker.Complete()

	gw, err := s.GetGateway(gatewayID, tenantCtx)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if req.Title != nil {
		gw.Title = *req.Title
	}
	if req.Description != nil {
		gw.Description = *req.Description
	}
	if req.RewardURL != nil {
		gw.RewardURL = *req.RewardURL
	}
	if req.Stages != nil {
		if err := validateStages(req.Stages); err != nil {
			marker.SetError(err)
			return nil, err
		}
		gw.Stages = req.Stages
		gw.TotalStages = len(req.Stages)
	}
	if req.IsActive != nil {
		gw.IsActive = *req.IsActive
	}
	gw.UpdatedAt = s.now().UTC()

	if err := tenantCtx.GatewayRepo.Update(gw); err != nil {
		marker.SetError(err)
		return nil, err
	}
	tenantCtx.CacheManager.SetGateway(tenantCtx.TenantID, gw)
	marker.SetSuccess(true)
	return gw, nil
}

// DeleteGateway removes a gateway definition and evicts it from cache.
func (s *GatewayService) DeleteGateway(gatewayID string, tenantCtx *tenant.Context) error {
	if err := tenantCtx.GatewayRepo.Delete(gatewayID); err != nil {
		return err
	}
	tenantCtx.CacheManager.RemoveGateway(tenantCtx.TenantID, gatewayID)
	s.logger.WithTenant(logging.ChannelGateway, tenantCtx.TenantID).Info("Gateway deleted", "gatewayId", gatewayID)
	return nil
}

func validateStages(stages []gatewayDomain.Stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("gateway requires at least one stage")
	}
	if len(stages) > config.MaxStagesPerGateway {
		return fmt.Errorf("gateway exceeds stage limit of %d", config.MaxStagesPerGateway)
	}
	for i, stage := range stages {
		if stage.Index != i {
			return fmt.Errorf("stage indices must be contiguous from 0, got %d at position %d", stage.Index, i)
		}
		if len(stage.Tasks) > config.MaxTasksPerStage {
			return fmt.Errorf("stage %d exceeds task limit of %d", i, config.MaxTasksPerStage)
		}
	}
	return nil
}

package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gatewayDomain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/email"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/tenant"
)

// NotificationService tells creators when a visitor completes their
// gateway, by email and optionally a Discord webhook. Everything here
// is best-effort; delivery failures are logged and dropped.
type NotificationService struct {
	logger     *logging.ChanneledLogger
	email      *email.Client
	httpClient *http.Client
}

// NewNotificationService creates the notifier. The email client may be
// nil when no provider is configured.
func NewNotificationService(logger *logging.ChanneledLogger, emailClient *email.Client) *NotificationService {
	return &NotificationService{
		logger:     logger,
		email:      emailClient,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyCompletion fans a completion out to every configured channel.
func (s *NotificationService) NotifyCompletion(gw *gatewayDomain.Gateway, session *gatewayDomain.Session, tenantCtx *tenant.Context) {
	cfg := tenantCtx.Config

	if s.email != nil && cfg.NotifyEmail != "" {
		if err := s.email.SendCompletionNotification(cfg.NotifyEmail, gw.Title, session.ID); err != nil {
			s.logger.System().Error("Completion email failed",
				"tenantId", tenantCtx.TenantID, "gatewayId", gw.ID, "error", err.Error())
		}
	}

	if cfg.DiscordWebhook != "" {
		if err := s.postDiscordWebhook(cfg.DiscordWebhook, gw, session); err != nil {
			s.logger.System().Error("Completion webhook failed",
				"tenantId", tenantCtx.TenantID, "gatewayId", gw.ID, "error", err.Error())
		}
	}
}

func (s *NotificationService) postDiscordWebhook(webhookURL string, gw *gatewayDomain.Gateway, session *gatewayDomain.Session) error {
	payload := map[string]string{
		"content": fmt.Sprintf("Gateway **%s** completed by session `%s`", gw.Title, session.ID),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Package analytics provides the concrete SQL-based implementation
// for analytics event persistence.
//
// Events are append-only: the core writes them as they happen and never
// mutates or deletes a stored row.
package analytics

import (
	"fmt"
	"time"

	domain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/persistence/database"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

// SQLEventRepository handles real-time event persistence to database.
type SQLEventRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLEventRepository {
	return &SQLEventRepository{
		db:     db,
		logger: logger,
	}
}

// StoreTaskEvent saves a task event to the database.
func (r *SQLEventRepository) StoreTaskEvent(event *domain.TaskEvent) error {
	const query = `
		INSERT INTO task_events (id, session_id, gateway_id, task_id, action, stage, user_agent, ip_address, creator_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var userAgent, ipAddress, creatorID string
	if event.Metadata != nil {
		userAgent = event.Metadata.UserAgent
		ipAddress = event.Metadata.IPAddress
		creatorID = event.Metadata.CreatorID
	}

	start := time.Now()
	r.logger.Database().Debug("Executing task event insert",
		"eventId", event.ID,
		"sessionId", event.SessionID,
		"gatewayId", event.GatewayID,
		"action", event.Action,
		"taskId", event.TaskID)

	_, err := r.db.Exec(
		query,
		event.ID,
		event.SessionID,
		event.GatewayID,
		event.TaskID,
		event.Action,
		event.Stage,
		userAgent,
		ipAddress,
		creatorID,
		event.CreatedAt,
	)
	if err != nil {
		r.logger.Database().Error("Task event insert failed",
			"error", err.Error(),
			"eventId", event.ID,
			"sessionId", event.SessionID,
			"action", event.Action)
		return fmt.Errorf("%w: failed to store task event: %v", domain.ErrStoreUnavailable, err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Task event insert completed", "eventId", event.ID, "action", event.Action, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return nil
}

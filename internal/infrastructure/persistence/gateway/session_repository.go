// Package gateway provides the concrete SQL-based implementations for
// gateway and session persistence.
package gateway

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/observability/logging"
	"github.com/NexusProtocols/nexus-gateway-go/internal/infrastructure/persistence/database"
	"github.com/NexusProtocols/nexus-gateway-go/pkg/config"
)

// SQLSessionRepository handles session persistence to the tenant database.
type SQLSessionRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSessionRepository creates a new instance of the repository.
func NewSQLSessionRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLSessionRepository {
	return &SQLSessionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new session row.
func (r *SQLSessionRepository) Create(session *domain.Session) error {
	tasks, err := json.Marshal(session.CompletedTasks)
	if err != nil {
		return fmt.Errorf("failed to marshal completed tasks: %w", err)
	}

	const query = `
		INSERT INTO sessions (id, gateway_id, user_id, completed_tasks, current_stage, completed, completed_at, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err = r.db.Exec(
		query,
		session.ID,
		session.GatewayID,
		session.UserID,
		string(tasks),
		session.CurrentStage,
		session.Completed,
		session.CompletedAt,
		session.CreatedAt,
		session.UpdatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		r.logger.Database().Error("Session insert failed", "error", err.Error(), "sessionId", session.ID, "gatewayId", session.GatewayID)
		return fmt.Errorf("%w: failed to store session: %v", domain.ErrStoreUnavailable, err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Session insert completed", "sessionId", session.ID, "gatewayId", session.GatewayID, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return nil
}

// GetByID loads a session row. Returns ErrSessionNotFound for misses;
// logical TTL expiry is enforced by the caller, not here.
func (r *SQLSessionRepository) GetByID(id string) (*domain.Session, error) {
	const query = `
		SELECT id, gateway_id, user_id, completed_tasks, current_stage, completed, completed_at, created_at, updated_at, expires_at
		FROM sessions WHERE id = ?`

	var (
		session     domain.Session
		tasksJSON   string
		completedAt sql.NullTime
	)
	err := r.db.QueryRow(query, id).Scan(
		&session.ID,
		&session.GatewayID,
		&session.UserID,
		&tasksJSON,
		&session.CurrentStage,
		&session.Completed,
		&completedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: failed to query session: %v", domain.ErrStoreUnavailable, err)
	}

	if err := json.Unmarshal([]byte(tasksJSON), &session.CompletedTasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed tasks for session %s: %w", id, err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}

	return &session, nil
}

// Update persists the merged session snapshot. The cache layer owns the
// merge; by the time a snapshot reaches here it is already the union of
// concurrent writes.
func (r *SQLSessionRepository) Update(session *domain.Session) error {
	tasks, err := json.Marshal(session.CompletedTasks)
	if err != nil {
		return fmt.Errorf("failed to marshal completed tasks: %w", err)
	}

	const query = `
		UPDATE sessions
		SET completed_tasks = ?, current_stage = ?, completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`

	start := time.Now()
	result, err := r.db.Exec(query, string(tasks), session.CurrentStage, session.Completed, session.CompletedAt, session.UpdatedAt, session.ID)
	if err != nil {
		r.logger.Database().Error("Session update failed", "error", err.Error(), "sessionId", session.ID)
		return fmt.Errorf("%w: failed to update session: %v", domain.ErrStoreUnavailable, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrSessionNotFound
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return nil
}

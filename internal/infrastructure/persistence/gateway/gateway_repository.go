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

// SQLGatewayRepository handles gateway definition persistence.
type SQLGatewayRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLGatewayRepository creates a new instance of the repository.
func NewSQLGatewayRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLGatewayRepository {
	return &SQLGatewayRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new gateway definition.
func (r *SQLGatewayRepository) Create(gw *domain.Gateway) error {
	stages, err := json.Marshal(gw.Stages)
	if err != nil {
		return fmt.Errorf("failed to marshal stages: %w", err)
	}

	const query = `
		INSERT INTO gateways (id, creator_id, title, description, reward_url, total_stages, stages_json, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err = r.db.Exec(query, gw.ID, gw.CreatorID, gw.Title, gw.Description, gw.RewardURL, gw.TotalStages, string(stages), gw.IsActive, gw.CreatedAt, gw.UpdatedAt)
	if err != nil {
		r.logger.Database().Error("Gateway insert failed", "error", err.Error(), "gatewayId", gw.ID)
		return fmt.Errorf("%w: failed to store gateway: %v", domain.ErrStoreUnavailable, err)
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return nil
}

// GetByID loads a gateway definition.
func (r *SQLGatewayRepository) GetByID(id string) (*domain.Gateway, error) {
	const query = `
		SELECT id, creator_id, title, description, reward_url, total_stages, stages_json, is_active, created_at, updated_at
		FROM gateways WHERE id = ?`

	var (
		gw          domain.Gateway
		description sql.NullString
		stagesJSON  sql.NullString
	)
	err := r.db.QueryRow(query, id).Scan(
		&gw.ID,
		&gw.CreatorID,
		&gw.Title,
		&description,
		&gw.RewardURL,
		&gw.TotalStages,
		&stagesJSON,
		&gw.IsActive,
		&gw.CreatedAt,
		&gw.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGatewayNotFound
		}
		return nil, fmt.Errorf("%w: failed to query gateway: %v", domain.ErrStoreUnavailable, err)
	}

	gw.Description = description.String
	if stagesJSON.Valid && stagesJSON.String != "" {
		if err := json.Unmarshal([]byte(stagesJSON.String), &gw.Stages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stages for gateway %s: %w", id, err)
		}
	}

	return &gw, nil
}

// ListByCreator returns all gateways owned by a creator, newest first.
func (r *SQLGatewayRepository) ListByCreator(creatorID string) ([]*domain.Gateway, error) {
	const query = `
		SELECT id, creator_id, title, description, reward_url, total_stages, stages_json, is_active, created_at, updated_at
		FROM gateways WHERE creator_id = ? ORDER BY created_at DESC`

	rows, err := r.db.Query(query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list gateways: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var gateways []*domain.Gateway
	for rows.Next() {
		var (
			gw          domain.Gateway
			description sql.NullString
			stagesJSON  sql.NullString
		)
		if err := rows.Scan(&gw.ID, &gw.CreatorID, &gw.Title, &description, &gw.RewardURL, &gw.TotalStages, &stagesJSON, &gw.IsActive, &gw.CreatedAt, &gw.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gateway row: %w", err)
		}
		gw.Description = description.String
		if stagesJSON.Valid && stagesJSON.String != "" {
			if err := json.Unmarshal([]byte(stagesJSON.String), &gw.Stages); err != nil {
				return nil, fmt.Errorf("failed to unmarshal stages for gateway %s: %w", gw.ID, err)
			}
		}
		gateways = append(gateways, &gw)
	}

	return gateways, rows.Err()
}

// Update persists changes to an existing gateway definition.
func (r *SQLGatewayRepository) Update(gw *domain.Gateway) error {
	stages, err := json.Marshal(gw.Stages)
	if err != nil {
		return fmt.Errorf("failed to marshal stages: %w", err)
	}

	const query = `
		UPDATE gateways
		SET title = ?, description = ?, reward_url = ?, total_stages = ?, stages_json = ?, is_active = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.Exec(query, gw.Title, gw.Description, gw.RewardURL, gw.TotalStages, string(stages), gw.IsActive, gw.UpdatedAt, gw.ID)
	if err != nil {
		return fmt.Errorf("%w: failed to update gateway: %v", domain.ErrStoreUnavailable, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrGatewayNotFound
	}
	return nil
}

// Delete removes a gateway definition.
func (r *SQLGatewayRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gateways WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete gateway: %v", domain.ErrStoreUnavailable, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrGatewayNotFound
	}
	return nil
}

package gateway

import "time"

// Task event actions recorded by the analytics pipeline.
const (
	ActionTaskStart    = "task_start"
	ActionTaskComplete = "task_complete"
	ActionStageAdvance = "stage_advance"
	ActionGatewayDone  = "gateway_complete"
)

// TaskEvent is an append-only analytics record tied to a session.
// Events are never mutated or deleted by the core.
type TaskEvent struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	GatewayID string         `json:"gatewayId"`
	TaskID    string         `json:"taskId,omitempty"`
	Action    string         `json:"action"`
	Stage     int            `json:"stage,omitempty"`
	Metadata  *EventMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// EventMetadata carries free-form request context for an event.
type EventMetadata struct {
	UserAgent string `json:"userAgent,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
	CreatorID string `json:"creatorId,omitempty"`
}

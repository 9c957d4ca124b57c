// Package messaging defines interfaces for real-time communication.
package messaging

// ProgressEvent is a live update pushed to creator dashboard clients
// watching a gateway.
type ProgressEvent struct {
	Type      string `json:"type"` // "stage_advance" | "gateway_complete" | "task_complete"
	GatewayID string `json:"gatewayId"`
	SessionID string `json:"sessionId"`
	Stage     int    `json:"stage,omitempty"`
	TaskID    string `json:"taskId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Broadcaster pushes progress events to dashboard clients watching a
// gateway. Broadcast is best-effort and must never block a request.
type Broadcaster interface {
	BroadcastToGateway(tenantID, gatewayID string, event ProgressEvent)
	GatewayConnectionCount(tenantID, gatewayID string) int
}

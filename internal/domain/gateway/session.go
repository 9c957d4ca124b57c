package gateway

import (
	"slices"
	"time"
)

// Session is the server-held mutable record of a visitor's progress
// through a gateway. Sessions expire logically after a fixed TTL; reads
// past ExpiresAt must report not found even if the record still exists.
type Session struct {
	ID             string     `json:"id"`
	GatewayID      string     `json:"gatewayId"`
	UserID         *string    `json:"userId,omitempty"`
	CompletedTasks []string   `json:"completedTasks"`
	CurrentStage   int        `json:"currentStage"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ExpiresAt      time.Time  `json:"expiresAt"`
}

// HasTask reports whether taskID is already in the completed set.
func (s *Session) HasTask(taskID string) bool {
	return slices.Contains(s.CompletedTasks, taskID)
}

// MergeTasks adds the given task IDs to the completed set, preserving
// uniqueness. Returns the number of tasks that were actually new.
// Callers must hold the store lock for the session's tenant.
func (s *Session) MergeTasks(taskIDs []string) int {
	added := 0
	for _, id := range taskIDs {
		if id == "" || s.HasTask(id) {
			continue
		}
		s.CompletedTasks = append(s.CompletedTasks, id)
		added++
	}
	return added
}

// IsExpired reports whether the session has passed its logical TTL.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

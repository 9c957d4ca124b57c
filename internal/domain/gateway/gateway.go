package gateway

import "time"

// Gateway represents a creator-defined multi-stage ad-gated flow.
type Gateway struct {
	ID          string    `json:"id"`
	CreatorID   string    `json:"creatorId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	RewardURL   string    `json:"rewardUrl"`
	TotalStages int       `json:"totalStages"`
	Stages      []Stage   `json:"stages,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Stage is one step of a gateway, containing one or more tasks.
type Stage struct {
	Index int    `json:"index"`
	Title string `json:"title,omitempty"`
	Tasks []Task `json:"tasks,omitempty"`
}

// Task is a single user action within a stage (visit link, watch video).
type Task struct {
	ID    string `json:"id"`
	Kind  string `json:"kind,omitempty"`
	Label string `json:"label,omitempty"`
	URL   string `json:"url,omitempty"`
}

package events

import (
	"context"
	"time"
)

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
)

// UserEvent is emitted after a user write commits
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Fields     []string  `json:"fields,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers user events to subscribers
type Publisher interface {
	Publish(ctx context.Context, event UserEvent) error
}

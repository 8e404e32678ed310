// Package audit defines the append-only record of who changed what.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one audit record
type Entry struct {
	ID         uuid.UUID      `json:"id"`
	EventID    uuid.UUID      `json:"event_id"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Action     string         `json:"action"`
	Before     string         `json:"before,omitempty"`
	After      string         `json:"after,omitempty"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Sink receives audit entries. Implementations must be safe for concurrent
// use; a failing sink never affects the business operation.
type Sink interface {
	Write(ctx context.Context, entries ...Entry) error
}

// Repository reads back stored audit entries
type Repository interface {
	Sink
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]Entry, error)
}

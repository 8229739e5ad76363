package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventMutation EventType = "mutation"
	EventReplay   EventType = "replay"
)

// MutationKind names the state change reported by a MutationEvent.
type MutationKind string

const (
	MutationEntityCreated    MutationKind = "entity_created"
	MutationEntityUpdated    MutationKind = "entity_updated"
	MutationEntityDeleted    MutationKind = "entity_deleted"
	MutationEntityDuplicated MutationKind = "entity_duplicated"
	MutationMarkerInserted   MutationKind = "marker_inserted"
	MutationMarkerUpdated    MutationKind = "marker_updated"
	MutationMarkerDeleted    MutationKind = "marker_deleted"
	MutationMarkersMoved     MutationKind = "markers_moved"
	MutationFieldPurged      MutationKind = "field_purged"
	MutationFieldRenamed     MutationKind = "field_renamed"
	MutationRestored         MutationKind = "restored"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// MutationEvent is emitted after a state change has been committed.
type MutationEvent struct {
	EventBase
	Kind     MutationKind `json:"kind"`
	EntityID string       `json:"entity_id,omitempty"`
	MarkerID string       `json:"marker_id,omitempty"`
	// Count is the number of markers touched by cascades and batch moves.
	Count int `json:"count,omitempty"`
}

// ReplayEvent is emitted after an entity state has been reconstructed.
type ReplayEvent struct {
	EventBase
	EntityID string        `json:"entity_id"`
	Position int           `json:"position"`
	Markers  int           `json:"markers"`
	Changes  int           `json:"changes"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run outside engine locks, after the operation committed.
type LifecycleHooks struct {
	OnMutation func(context.Context, *MutationEvent)
	OnReplay   func(context.Context, *ReplayEvent)
}

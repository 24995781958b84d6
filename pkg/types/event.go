package types

import "time"

// Audit event types emitted by the business services after structural
// mutations. Callers may record additional domain event types; the contract
// does not restrict the set.
const (
	EventThingCreated      = "thing.created"
	EventThingUpdated      = "thing.updated"
	EventThingArchived     = "thing.archived"
	EventConnectionCreated = "connection.created"
	EventConnectionDeleted = "connection.deleted"
	EventGroupCreated      = "group.created"
	EventKnowledgeLinked   = "knowledge.linked"
)

// Event is an immutable timestamped fact. Events are never updated or
// deleted after creation; ordering is by timestamp.
type Event struct {
	EventID   string         `json:"event_id"`
	Type      string         `json:"type"`
	ActorID   string         `json:"actor_id"`
	TargetID  string         `json:"target_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	GroupID   string         `json:"group_id,omitempty"`
}

// Validate checks creation invariants.
func (e *Event) Validate() error {
	if e.Type == "" {
		return NewValidationFailed("type", "event type is required")
	}
	if e.ActorID == "" {
		return NewValidationFailed("actor_id", "actor is required")
	}
	return nil
}

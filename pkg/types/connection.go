package types

import "time"

// Connection relationship types. The set is closed; a connection with a type
// outside it is rejected at creation.
const (
	RelOwns       = "owns"
	RelBelongsTo  = "belongs_to"
	RelCreatedBy  = "created_by"
	RelMemberOf   = "member_of"
	RelParentOf   = "parent_of"
	RelChildOf    = "child_of"
	RelReferences = "references"
	RelDerivedOf  = "derived_from"
	RelTaggedWith = "tagged_with"
	RelFollows    = "follows"
	RelAssignedTo = "assigned_to"
	RelPartOf     = "part_of"
	RelRelatedTo  = "related_to"
	RelMentions   = "mentions"
	RelLinkedTo   = "linked_to"
)

// validRelationshipTypes is the recognized relationship type set.
var validRelationshipTypes = map[string]bool{
	RelOwns: true, RelBelongsTo: true, RelCreatedBy: true, RelMemberOf: true,
	RelParentOf: true, RelChildOf: true, RelReferences: true, RelDerivedOf: true,
	RelTaggedWith: true, RelFollows: true, RelAssignedTo: true, RelPartOf: true,
	RelRelatedTo: true, RelMentions: true, RelLinkedTo: true,
}

// selfLoopPermitted lists the relationship types where from == to is legal.
// Everything else rejects self-loops.
var selfLoopPermitted = map[string]bool{
	RelReferences: true,
}

// ValidRelationshipType reports whether t is a recognized relationship type.
func ValidRelationshipType(t string) bool {
	return validRelationshipTypes[t]
}

// SelfLoopPermitted reports whether the relationship type allows a
// connection from an entity to itself.
func SelfLoopPermitted(t string) bool {
	return selfLoopPermitted[t]
}

// Connection is a directed typed edge between two existing entities.
// Connections are hard-deleted; the owning service records a compensating
// audit event.
type Connection struct {
	ConnectionID     string         `json:"connection_id"`
	FromEntityID     string         `json:"from_entity_id"`
	ToEntityID       string         `json:"to_entity_id"`
	RelationshipType string         `json:"relationship_type"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Strength         float64        `json:"strength,omitempty"`
	ValidFrom        *time.Time     `json:"valid_from,omitempty"`
	ValidUntil       *time.Time     `json:"valid_until,omitempty"`
	GroupID          string         `json:"group_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Validate checks creation invariants that need no backend access.
func (c *Connection) Validate() error {
	if c.FromEntityID == "" {
		return NewValidationFailed("from_entity_id", "source entity is required")
	}
	if c.ToEntityID == "" {
		return NewValidationFailed("to_entity_id", "target entity is required")
	}
	if !ValidRelationshipType(c.RelationshipType) {
		return NewValidationFailed("relationship_type", "unrecognized relationship type: "+c.RelationshipType)
	}
	return nil
}

package types

import (
	"strings"
	"time"
)

// Thing statuses. A thing progresses through these during its lifecycle;
// archived is terminal and deletion is always a transition to it.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusPublished = "published"
	StatusInactive  = "inactive"
	StatusArchived  = "archived"
)

// statusTransitions is the fixed transition graph. A transition absent here
// must be rejected, never silently applied.
var statusTransitions = map[string][]string{
	StatusDraft:     {StatusActive, StatusArchived},
	StatusActive:    {StatusPublished, StatusInactive, StatusArchived},
	StatusPublished: {StatusActive, StatusArchived},
	StatusInactive:  {StatusActive, StatusArchived},
	StatusArchived:  {},
}

// ValidStatus reports whether s is a recognized thing status.
func ValidStatus(s string) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether the status graph permits from → to.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// KnownThingTypes is the recognized thing type set, condensed from the full
// ontology. Types outside this set are rejected at creation.
var KnownThingTypes = map[string]bool{
	"person": true, "organization": true, "team": true, "project": true,
	"product": true, "service": true, "order": true, "invoice": true,
	"task": true, "milestone": true, "document": true, "page": true,
	"post": true, "blog_post": true, "comment": true, "campaign": true,
	"channel": true, "message": true, "meeting": true, "contact": true,
	"lead": true, "deal": true, "asset": true, "location": true,
	"skill": true, "role": true, "tag": true, "template": true,
	"workflow": true, "integration": true,
}

// Thing is a generic typed entity with a property bag and lifecycle status.
type Thing struct {
	ThingID    string         `json:"thing_id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	Status     string         `json:"status"`
	GroupID    string         `json:"group_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  *time.Time     `json:"deleted_at,omitempty"`
}

// ThingPatch describes a partial thing update. Nil pointers leave the
// corresponding field unchanged; a nil Properties map leaves the bag as-is.
type ThingPatch struct {
	Name       *string        `json:"name,omitempty"`
	Status     *string        `json:"status,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	GroupID    *string        `json:"group_id,omitempty"`
}

// Validate checks creation invariants: non-empty name, recognized type,
// schema-conformant properties. Returns a ServiceError on failure.
func (t *Thing) Validate() error {
	if t.Name == "" {
		return NewValidationFailed("name", "name must not be empty")
	}
	if !KnownThingTypes[t.Type] {
		return NewValidationFailed("type", "unrecognized thing type: "+t.Type)
	}
	return ValidateProperties(t.Type, t.Properties)
}

// PropKind is the value kind a schema property accepts.
type PropKind int

const (
	KindString PropKind = iota
	KindNumber
	KindBool
	KindList
)

// thingSchemas maps thing types to their known property sets. Types without
// a schema accept any bag. Keys outside the schema must use the ExtraPrefix
// escape hatch for genuinely free-form extension fields.
var thingSchemas = map[string]map[string]PropKind{
	"order": {
		"total":    KindNumber,
		"currency": KindString,
		"paid":     KindBool,
		"items":    KindList,
	},
	"task": {
		"priority": KindNumber,
		"assignee": KindString,
		"done":     KindBool,
	},
	"blog_post": {
		"slug":      KindString,
		"body":      KindString,
		"tags":      KindList,
		"published": KindBool,
	},
	"person": {
		"email": KindString,
		"phone": KindString,
		"title": KindString,
	},
}

// ExtraPrefix marks property keys exempt from schema validation.
const ExtraPrefix = "x_"

// ValidateProperties checks the bag against the type's schema, if one is
// registered. Validation happens at construction, not first read.
func ValidateProperties(thingType string, props map[string]any) error {
	schema, ok := thingSchemas[thingType]
	if !ok {
		return nil
	}
	for key, val := range props {
		if strings.HasPrefix(key, ExtraPrefix) {
			continue
		}
		kind, known := schema[key]
		if !known {
			return NewValidationFailed(key, "unknown property for type "+thingType)
		}
		if !kindMatches(kind, val) {
			return NewValidationFailed(key, "wrong value kind for property")
		}
	}
	return nil
}

func kindMatches(kind PropKind, val any) bool {
	if val == nil {
		return true
	}
	switch kind {
	case KindString:
		_, ok := val.(string)
		return ok
	case KindNumber:
		switch val.(type) {
		case int, int64, float32, float64:
			return true
		}
		return false
	case KindBool:
		_, ok := val.(bool)
		return ok
	case KindList:
		switch val.(type) {
		case []any, []string:
			return true
		}
		return false
	}
	return false
}

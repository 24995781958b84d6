package types

import "time"

// List filters. Each family recognizes only the fields below; anything a
// caller cannot express here is by construction ignored rather than
// rejected. Zero values mean "no constraint". Limit and Offset apply after
// ordering (and, in the composite router, after the cross-backend merge).

// ThingFilter narrows ListThings.
type ThingFilter struct {
	Type    string
	Status  string
	GroupID string
	Limit   int
	Offset  int
}

// ConnectionFilter narrows ListConnections.
type ConnectionFilter struct {
	FromEntityID     string
	ToEntityID       string
	RelationshipType string
	Limit            int
	Offset           int
}

// EventFilter narrows ListEvents. Since/Until bound the timestamp,
// inclusive/exclusive respectively.
type EventFilter struct {
	Type     string
	ActorID  string
	TargetID string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// KnowledgeFilter narrows ListKnowledge.
type KnowledgeFilter struct {
	Query         string
	SourceThingID string
	KnowledgeType string
	Limit         int
}

// GroupFilter narrows ListGroups.
type GroupFilter struct {
	Type          string
	Status        string
	ParentGroupID string
	Limit         int
	Offset        int
}

// SearchOptions tune KnowledgeProvider.Search. MinScore drops matches whose
// cosine similarity falls below it.
type SearchOptions struct {
	Limit         int
	MinScore      float64
	KnowledgeType string
	SourceThingID string
}

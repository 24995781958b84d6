package types

import "context"

// Provider is the uniform data-access contract. Application code talks to a
// Provider, never to a concrete backend; both single adapters and the
// composite router implement it. Create/Update/Delete persist synchronously
// before returning, and no implementation caches: each adapter gives a
// strongly-consistent read of its own writes. Every failure is a member of
// the error taxonomy in this package.
type Provider interface {
	ThingProvider
	ConnectionProvider
	EventProvider
	KnowledgeProvider
	GroupProvider
	AuthProvider
}

// ThingProvider is the Thing operation family. DeleteThing is a soft delete:
// a status transition to archived plus a DeletedAt stamp, never physical
// removal.
type ThingProvider interface {
	GetThing(ctx context.Context, id string) (*Thing, error)
	ListThings(ctx context.Context, filter ThingFilter) ([]*Thing, error)
	CreateThing(ctx context.Context, input *Thing) (*Thing, error)
	UpdateThing(ctx context.Context, id string, patch ThingPatch) (*Thing, error)
	DeleteThing(ctx context.Context, id string) error
}

// ConnectionProvider is the Connection operation family. DeleteConnection is
// a hard delete; the owning service records a compensating audit event.
type ConnectionProvider interface {
	GetConnection(ctx context.Context, id string) (*Connection, error)
	ListConnections(ctx context.Context, filter ConnectionFilter) ([]*Connection, error)
	CreateConnection(ctx context.Context, input *Connection) (*Connection, error)
	DeleteConnection(ctx context.Context, id string) error
}

// EventProvider is the Event operation family. Events are append-only; there
// is deliberately no update or delete.
type EventProvider interface {
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
	CreateEvent(ctx context.Context, input *Event) (*Event, error)
}

// KnowledgeProvider is the Knowledge operation family. Search ranks by
// embedding similarity, best first.
type KnowledgeProvider interface {
	GetKnowledge(ctx context.Context, id string) (*Knowledge, error)
	ListKnowledge(ctx context.Context, filter KnowledgeFilter) ([]*Knowledge, error)
	CreateKnowledge(ctx context.Context, input *Knowledge) (*Knowledge, error)
	DeleteKnowledge(ctx context.Context, id string) error
	LinkKnowledge(ctx context.Context, thingID, knowledgeID, role string) (*ThingKnowledge, error)
	SearchKnowledge(ctx context.Context, embedding []float32, opts SearchOptions) ([]*KnowledgeMatch, error)
}

// GroupProvider is the Group operation family. UpdateUsage applies an atomic
// delta to one resource counter, avoiding lost updates under concurrent
// callers; it returns the counter value after the delta.
type GroupProvider interface {
	GetGroup(ctx context.Context, id string) (*Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*Group, error)
	ListGroups(ctx context.Context, filter GroupFilter) ([]*Group, error)
	CreateGroup(ctx context.Context, input *Group) (*Group, error)
	UpdateGroup(ctx context.Context, id string, patch GroupPatch) (*Group, error)
	DeleteGroup(ctx context.Context, id string) error
	UpdateUsage(ctx context.Context, groupID, resource string, delta int) (int, error)
}

// AuthProvider is the Auth operation family, fully delegated to a
// session/credential backend.
type AuthProvider interface {
	Register(ctx context.Context, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) (*User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	VerifyTwoFactor(ctx context.Context, pendingToken, code string) (*Session, error)
}

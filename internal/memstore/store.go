// Package memstore implements the provider contract in process memory.
// It backs tests and lightweight deployments, and serves as a second
// backend behind the composite router. All state lives in maps guarded by
// one RWMutex; reads of own writes are trivially consistent.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// Compile-time interface check: Store must implement Provider.
var _ types.Provider = (*Store)(nil)

// Store holds all entities for one memory backend.
type Store struct {
	mu              sync.RWMutex
	idPrefix        string
	now             func() time.Time
	requireVerified bool

	things      map[string]*types.Thing
	connections map[string]*types.Connection
	events      map[string]*types.Event
	knowledge   map[string]*types.Knowledge
	links       []*types.ThingKnowledge
	groups      map[string]*types.Group
	usage       map[string]map[string]int // group → resource → amount

	users          map[string]*user    // user id → user
	usersByEmail   map[string]*user    // lowercased email → user
	sessions       map[string]*session // token → session
	refreshTokens  map[string]*session // refresh token → session
	pendingLogins  map[string]string   // pending 2FA token → user id
	failedAttempts map[string]int      // lowercased email → consecutive failures
}

// New creates an empty store. idPrefix is prepended to every generated
// identifier, which is what the composite router's prefix dispatch keys on.
func New(idPrefix string) *Store {
	return &Store{
		idPrefix:       idPrefix,
		now:            time.Now,
		things:         make(map[string]*types.Thing),
		connections:    make(map[string]*types.Connection),
		events:         make(map[string]*types.Event),
		knowledge:      make(map[string]*types.Knowledge),
		groups:         make(map[string]*types.Group),
		usage:          make(map[string]map[string]int),
		users:          make(map[string]*user),
		usersByEmail:   make(map[string]*user),
		sessions:       make(map[string]*session),
		refreshTokens:  make(map[string]*session),
		pendingLogins:  make(map[string]string),
		failedAttempts: make(map[string]int),
	}
}

// newID generates a prefixed UUID v7, falling back to v4 if v7 fails.
func (s *Store) newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return s.idPrefix + uuid.New().String()
	}
	return s.idPrefix + id.String()
}

// GetThing retrieves a thing by ID.
func (s *Store) GetThing(_ context.Context, id string) (*types.Thing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.things[id]
	if !ok {
		return nil, types.NewThingNotFound(id)
	}
	return cloneThing(t), nil
}

// ListThings returns things matching the filter, created_at descending.
func (s *Store) ListThings(_ context.Context, filter types.ThingFilter) ([]*types.Thing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*types.Thing, 0)
	for _, t := range s.things {
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.GroupID != "" && t.GroupID != filter.GroupID {
			continue
		}
		results = append(results, cloneThing(t))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return window(results, filter.Limit, filter.Offset), nil
}

// CreateThing persists a new thing, stamping id, draft status, and
// timestamps.
func (s *Store) CreateThing(_ context.Context, input *types.Thing) (*types.Thing, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	t := cloneThing(input)
	t.ThingID = s.newID()
	if t.Status == "" {
		t.Status = types.StatusDraft
	} else if !types.ValidStatus(t.Status) {
		return nil, types.NewThingCreateFailed("unrecognized status: "+t.Status, nil)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	t.DeletedAt = nil
	if t.Properties == nil {
		t.Properties = make(map[string]any)
	}

	s.things[t.ThingID] = t
	return cloneThing(t), nil
}

// UpdateThing applies a partial update. An empty patch touches only
// UpdatedAt.
func (s *Store) UpdateThing(_ context.Context, id string, patch types.ThingPatch) (*types.Thing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.things[id]
	if !ok {
		return nil, types.NewThingNotFound(id)
	}

	// Patch a clone and swap it in only after every field has validated, so
	// a rejected patch leaves the stored record untouched.
	t := cloneThing(stored)
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, types.NewThingUpdateFailed(id, "name must not be empty", nil)
		}
		t.Name = *patch.Name
	}
	if patch.Status != nil {
		if !types.ValidStatus(*patch.Status) {
			return nil, types.NewThingUpdateFailed(id, "unrecognized status: "+*patch.Status, nil)
		}
		t.Status = *patch.Status
	}
	if patch.GroupID != nil {
		t.GroupID = *patch.GroupID
	}
	if patch.Properties != nil {
		if err := types.ValidateProperties(t.Type, patch.Properties); err != nil {
			return nil, err
		}
		if t.Properties == nil {
			t.Properties = make(map[string]any, len(patch.Properties))
		}
		for k, v := range patch.Properties {
			t.Properties[k] = v
		}
	}
	t.UpdatedAt = s.now().UTC()

	s.things[id] = t
	return cloneThing(t), nil
}

// DeleteThing soft-deletes: archives the thing and stamps DeletedAt. The
// record remains readable.
func (s *Store) DeleteThing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.things[id]
	if !ok {
		return types.NewThingNotFound(id)
	}
	now := s.now().UTC()
	t.Status = types.StatusArchived
	t.DeletedAt = &now
	t.UpdatedAt = now
	return nil
}

// GetConnection retrieves a connection by ID.
func (s *Store) GetConnection(_ context.Context, id string) (*types.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.connections[id]
	if !ok {
		return nil, types.NewConnectionNotFound(id)
	}
	return cloneConnection(c), nil
}

// ListConnections returns connections matching the filter, created_at
// descending.
func (s *Store) ListConnections(_ context.Context, filter types.ConnectionFilter) ([]*types.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*types.Connection, 0)
	for _, c := range s.connections {
		if filter.FromEntityID != "" && c.FromEntityID != filter.FromEntityID {
			continue
		}
		if filter.ToEntityID != "" && c.ToEntityID != filter.ToEntityID {
			continue
		}
		if filter.RelationshipType != "" && c.RelationshipType != filter.RelationshipType {
			continue
		}
		results = append(results, cloneConnection(c))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return window(results, filter.Limit, filter.Offset), nil
}

// CreateConnection persists a new connection. Endpoint existence is a
// service-level check; the adapter validates shape only.
func (s *Store) CreateConnection(_ context.Context, input *types.Connection) (*types.Connection, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := cloneConnection(input)
	c.ConnectionID = s.newID()
	c.CreatedAt = s.now().UTC()
	s.connections[c.ConnectionID] = c
	return cloneConnection(c), nil
}

// DeleteConnection hard-deletes a connection.
func (s *Store) DeleteConnection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.connections[id]; !ok {
		return types.NewConnectionNotFound(id)
	}
	delete(s.connections, id)
	return nil
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(_ context.Context, id string) (*types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, types.NewQueryFailed("event not found: "+id, nil)
	}
	return cloneEvent(e), nil
}

// ListEvents returns events matching the filter, timestamp descending.
func (s *Store) ListEvents(_ context.Context, filter types.EventFilter) ([]*types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*types.Event, 0)
	for _, e := range s.events {
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.ActorID != "" && e.ActorID != filter.ActorID {
			continue
		}
		if filter.TargetID != "" && e.TargetID != filter.TargetID {
			continue
		}
		if filter.Since != nil && e.Timestamp.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && !e.Timestamp.Before(*filter.Until) {
			continue
		}
		results = append(results, cloneEvent(e))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	return window(results, filter.Limit, filter.Offset), nil
}

// CreateEvent appends an immutable event. A zero timestamp is stamped with
// the current time.
func (s *Store) CreateEvent(_ context.Context, input *types.Event) (*types.Event, error) {
	if err := input.Validate(); err != nil {
		return nil, types.NewEventCreateFailed(err.Error(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := cloneEvent(input)
	e.EventID = s.newID()
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now().UTC()
	}
	s.events[e.EventID] = e
	return cloneEvent(e), nil
}

// window applies limit and offset after ordering.
func window[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneThing(t *types.Thing) *types.Thing {
	c := *t
	if t.Properties != nil {
		c.Properties = make(map[string]any, len(t.Properties))
		for k, v := range t.Properties {
			c.Properties[k] = v
		}
	}
	if t.DeletedAt != nil {
		d := *t.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}

func cloneConnection(in *types.Connection) *types.Connection {
	c := *in
	if in.Metadata != nil {
		c.Metadata = make(map[string]any, len(in.Metadata))
		for k, v := range in.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func cloneEvent(in *types.Event) *types.Event {
	e := *in
	if in.Metadata != nil {
		e.Metadata = make(map[string]any, len(in.Metadata))
		for k, v := range in.Metadata {
			e.Metadata[k] = v
		}
	}
	return &e
}

func cloneGroup(in *types.Group) *types.Group {
	g := *in
	if in.Usage != nil {
		g.Usage = make(map[string]int, len(in.Usage))
		for k, v := range in.Usage {
			g.Usage[k] = v
		}
	}
	if in.Settings.Limits != nil {
		g.Settings.Limits = make(map[string]int, len(in.Settings.Limits))
		for k, v := range in.Settings.Limits {
			g.Settings.Limits[k] = v
		}
	}
	return &g
}

func cloneKnowledge(in *types.Knowledge) *types.Knowledge {
	k := *in
	if in.Embedding != nil {
		k.Embedding = append([]float32(nil), in.Embedding...)
	}
	if in.Labels != nil {
		k.Labels = append([]string(nil), in.Labels...)
	}
	if in.Chunk != nil {
		ch := *in.Chunk
		k.Chunk = &ch
	}
	return &k
}

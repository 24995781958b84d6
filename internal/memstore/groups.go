package memstore

import (
	"context"
	"sort"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(_ context.Context, id string) (*types.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, types.NewGroupNotFound(id)
	}
	return cloneGroup(g), nil
}

// GetGroupBySlug retrieves a group by its unique slug.
func (s *Store) GetGroupBySlug(_ context.Context, slug string) (*types.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.groups {
		if g.Slug == slug {
			return cloneGroup(g), nil
		}
	}
	return nil, types.NewGroupNotFound(slug)
}

// ListGroups returns groups matching the filter, created_at descending.
func (s *Store) ListGroups(_ context.Context, filter types.GroupFilter) ([]*types.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*types.Group, 0)
	for _, g := range s.groups {
		if filter.Type != "" && g.Type != filter.Type {
			continue
		}
		if filter.Status != "" && g.Status != filter.Status {
			continue
		}
		if filter.ParentGroupID != "" && g.ParentGroupID != filter.ParentGroupID {
			continue
		}
		results = append(results, cloneGroup(g))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return window(results, filter.Limit, filter.Offset), nil
}

// CreateGroup persists a new group. Slugs are unique per backend.
func (s *Store) CreateGroup(_ context.Context, input *types.Group) (*types.Group, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if g.Slug == input.Slug {
			return nil, types.NewGroupCreateFailed("slug already in use: "+input.Slug, nil)
		}
	}

	now := s.now().UTC()
	g := cloneGroup(input)
	g.GroupID = s.newID()
	if g.Status == "" {
		g.Status = types.GroupStatusActive
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Usage == nil {
		g.Usage = make(map[string]int)
	}
	s.groups[g.GroupID] = g
	return cloneGroup(g), nil
}

// UpdateGroup applies a partial update.
func (s *Store) UpdateGroup(_ context.Context, id string, patch types.GroupPatch) (*types.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, types.NewGroupNotFound(id)
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Status != nil {
		g.Status = *patch.Status
	}
	if patch.ParentGroupID != nil {
		g.ParentGroupID = *patch.ParentGroupID
	}
	if patch.Settings != nil {
		g.Settings = *patch.Settings
	}
	g.UpdatedAt = s.now().UTC()
	return cloneGroup(g), nil
}

// DeleteGroup archives a group. Like things, groups are never physically
// removed.
func (s *Store) DeleteGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return types.NewGroupNotFound(id)
	}
	g.Status = types.GroupStatusArchived
	g.UpdatedAt = s.now().UTC()
	return nil
}

// UpdateUsage applies an atomic delta to one resource counter and returns
// the new value. Counters never go below zero.
func (s *Store) UpdateUsage(_ context.Context, groupID, resource string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return 0, types.NewGroupNotFound(groupID)
	}
	counters, ok := s.usage[groupID]
	if !ok {
		counters = make(map[string]int)
		s.usage[groupID] = counters
	}
	next := counters[resource] + delta
	if next < 0 {
		next = 0
	}
	counters[resource] = next
	g.Usage[resource] = next
	return next, nil
}

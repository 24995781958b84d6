package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/mesh-intelligence/ontic/internal/vec"
	"github.com/mesh-intelligence/ontic/pkg/types"
)

// GetKnowledge retrieves a knowledge item by ID.
func (s *Store) GetKnowledge(_ context.Context, id string) (*types.Knowledge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.knowledge[id]
	if !ok {
		return nil, types.NewKnowledgeNotFound(id)
	}
	return cloneKnowledge(k), nil
}

// ListKnowledge returns knowledge items matching the filter, created_at
// descending. Query matches as a case-insensitive substring of the text.
func (s *Store) ListKnowledge(_ context.Context, filter types.KnowledgeFilter) ([]*types.Knowledge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(filter.Query)
	results := make([]*types.Knowledge, 0)
	for _, k := range s.knowledge {
		if filter.SourceThingID != "" && k.SourceThingID != filter.SourceThingID {
			continue
		}
		if filter.KnowledgeType != "" && k.KnowledgeType != filter.KnowledgeType {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(k.Text), query) {
			continue
		}
		results = append(results, cloneKnowledge(k))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return window(results, filter.Limit, 0), nil
}

// CreateKnowledge persists a new knowledge item.
func (s *Store) CreateKnowledge(_ context.Context, input *types.Knowledge) (*types.Knowledge, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := cloneKnowledge(input)
	k.KnowledgeID = s.newID()
	k.CreatedAt = s.now().UTC()
	if len(k.Embedding) > 0 && k.EmbeddingDim == 0 {
		k.EmbeddingDim = len(k.Embedding)
	}
	s.knowledge[k.KnowledgeID] = k
	return cloneKnowledge(k), nil
}

// DeleteKnowledge hard-deletes a knowledge item and its links.
func (s *Store) DeleteKnowledge(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.knowledge[id]; !ok {
		return types.NewKnowledgeNotFound(id)
	}
	delete(s.knowledge, id)
	kept := s.links[:0]
	for _, l := range s.links {
		if l.KnowledgeID != id {
			kept = append(kept, l)
		}
	}
	s.links = kept
	return nil
}

// LinkKnowledge attaches a knowledge item to a thing with an optional role.
func (s *Store) LinkKnowledge(_ context.Context, thingID, knowledgeID, role string) (*types.ThingKnowledge, error) {
	if role != "" && !types.ValidKnowledgeRole(role) {
		return nil, types.NewValidationFailed("role", "unrecognized link role: "+role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.things[thingID]; !ok {
		return nil, types.NewThingNotFound(thingID)
	}
	if _, ok := s.knowledge[knowledgeID]; !ok {
		return nil, types.NewKnowledgeNotFound(knowledgeID)
	}

	link := &types.ThingKnowledge{
		ThingID:     thingID,
		KnowledgeID: knowledgeID,
		Role:        role,
		CreatedAt:   s.now().UTC(),
	}
	s.links = append(s.links, link)
	out := *link
	return &out, nil
}

// SearchKnowledge ranks embeddable items by cosine similarity to the query
// vector, best first.
func (s *Store) SearchKnowledge(_ context.Context, embedding []float32, opts types.SearchOptions) ([]*types.KnowledgeMatch, error) {
	if len(embedding) == 0 {
		return nil, types.NewQueryFailed("search embedding must not be empty", nil)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*types.KnowledgeMatch, 0)
	for _, k := range s.knowledge {
		if len(k.Embedding) == 0 {
			continue
		}
		if opts.KnowledgeType != "" && k.KnowledgeType != opts.KnowledgeType {
			continue
		}
		if opts.SourceThingID != "" && k.SourceThingID != opts.SourceThingID {
			continue
		}
		score := vec.Cosine(embedding, k.Embedding)
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, &types.KnowledgeMatch{Knowledge: cloneKnowledge(k), Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return window(matches, opts.Limit, 0), nil
}

package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// KnowledgeService validates knowledge items per kind and bridges text to
// vectors through a caller-supplied embedder. The concrete embedding model
// stays outside the module.
type KnowledgeService struct {
	provider types.Provider
	embedder types.Embedder
	logger   *zap.Logger
}

// NewKnowledgeService builds a knowledge service. embedder may be nil, in
// which case text-based operations fail with validation_failed.
func NewKnowledgeService(provider types.Provider, embedder types.Embedder, logger *zap.Logger) *KnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeService{provider: provider, embedder: embedder, logger: logger}
}

// Get retrieves a knowledge item.
func (s *KnowledgeService) Get(ctx context.Context, id string) (*types.Knowledge, error) {
	return s.provider.GetKnowledge(ctx, id)
}

// List returns knowledge items matching the filter.
func (s *KnowledgeService) List(ctx context.Context, filter types.KnowledgeFilter) ([]*types.Knowledge, error) {
	return s.provider.ListKnowledge(ctx, filter)
}

// Create validates mandatory fields for the item's kind, embedding text
// first when the kind needs a vector the caller did not supply.
func (s *KnowledgeService) Create(ctx context.Context, input *types.Knowledge) (*types.Knowledge, error) {
	needsVector := input.KnowledgeType == types.KnowledgeChunk ||
		input.KnowledgeType == types.KnowledgeVectorOnly
	if needsVector && len(input.Embedding) == 0 && input.Text != "" && s.embedder != nil {
		emb, err := s.embedder(ctx, input.Text)
		if err != nil {
			return nil, types.NewValidationFailed("embedding", "embedding text: "+err.Error())
		}
		input.Embedding = emb
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.provider.CreateKnowledge(ctx, input)
}

// Delete hard-deletes a knowledge item and its links.
func (s *KnowledgeService) Delete(ctx context.Context, id string) error {
	return s.provider.DeleteKnowledge(ctx, id)
}

// Link attaches a knowledge item to a thing and records a knowledge.linked
// audit event.
func (s *KnowledgeService) Link(ctx context.Context, actorID, thingID, knowledgeID, role string) (*types.ThingKnowledge, error) {
	link, err := s.provider.LinkKnowledge(ctx, thingID, knowledgeID, role)
	if err != nil {
		return nil, err
	}
	if _, err := s.provider.CreateEvent(ctx, &types.Event{
		Type:     types.EventKnowledgeLinked,
		ActorID:  actorID,
		TargetID: thingID,
		Metadata: map[string]any{"knowledge_id": knowledgeID, "role": role},
	}); err != nil {
		s.logger.Warn("audit event dropped",
			zap.String("type", types.EventKnowledgeLinked),
			zap.String("target_id", thingID),
			zap.Error(err))
	}
	return link, nil
}

// Search ranks knowledge by similarity to the query vector.
func (s *KnowledgeService) Search(ctx context.Context, embedding []float32, opts types.SearchOptions) ([]*types.KnowledgeMatch, error) {
	return s.provider.SearchKnowledge(ctx, embedding, opts)
}

// SearchText embeds the query text and searches with the resulting vector.
func (s *KnowledgeService) SearchText(ctx context.Context, query string, opts types.SearchOptions) ([]*types.KnowledgeMatch, error) {
	if s.embedder == nil {
		return nil, types.NewValidationFailed("query", "no embedder configured for text search")
	}
	emb, err := s.embedder(ctx, query)
	if err != nil {
		return nil, types.NewValidationFailed("query", "embedding query: "+err.Error())
	}
	return s.provider.SearchKnowledge(ctx, emb, opts)
}

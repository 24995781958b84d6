package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// ConnectionService guards relationship integrity: both endpoints must
// exist, and self-loops are rejected unless the relationship type permits
// them.
type ConnectionService struct {
	provider types.Provider
	logger   *zap.Logger
}

// NewConnectionService builds a connection service. A nil logger disables
// logging.
func NewConnectionService(provider types.Provider, logger *zap.Logger) *ConnectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionService{provider: provider, logger: logger}
}

// Get retrieves a connection.
func (s *ConnectionService) Get(ctx context.Context, id string) (*types.Connection, error) {
	return s.provider.GetConnection(ctx, id)
}

// List returns connections matching the filter.
func (s *ConnectionService) List(ctx context.Context, filter types.ConnectionFilter) ([]*types.Connection, error) {
	return s.provider.ListConnections(ctx, filter)
}

// Create validates the edge before touching the backend: shape, self-loop
// policy, then endpoint existence. On success it records a
// connection.created audit event.
func (s *ConnectionService) Create(ctx context.Context, actorID string, input *types.Connection) (*types.Connection, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.FromEntityID == input.ToEntityID && !types.SelfLoopPermitted(input.RelationshipType) {
		return nil, types.NewSelfLoop(input.FromEntityID)
	}
	if _, err := s.provider.GetThing(ctx, input.FromEntityID); err != nil {
		return nil, err
	}
	if _, err := s.provider.GetThing(ctx, input.ToEntityID); err != nil {
		return nil, err
	}

	created, err := s.provider.CreateConnection(ctx, input)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, &types.Event{
		Type:     types.EventConnectionCreated,
		ActorID:  actorID,
		TargetID: created.ConnectionID,
		GroupID:  created.GroupID,
		Metadata: map[string]any{
			"from":              created.FromEntityID,
			"to":                created.ToEntityID,
			"relationship_type": created.RelationshipType,
		},
	})
	return created, nil
}

// Delete hard-deletes a connection. Because the row is gone afterwards, the
// compensating audit event carries the edge's endpoints.
func (s *ConnectionService) Delete(ctx context.Context, actorID, id string) error {
	conn, err := s.provider.GetConnection(ctx, id)
	if err != nil {
		return err
	}
	if err := s.provider.DeleteConnection(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, &types.Event{
		Type:     types.EventConnectionDeleted,
		ActorID:  actorID,
		TargetID: id,
		GroupID:  conn.GroupID,
		Metadata: map[string]any{
			"from":              conn.FromEntityID,
			"to":                conn.ToEntityID,
			"relationship_type": conn.RelationshipType,
		},
	})
	return nil
}

func (s *ConnectionService) audit(ctx context.Context, e *types.Event) {
	if _, err := s.provider.CreateEvent(ctx, e); err != nil {
		s.logger.Warn("audit event dropped",
			zap.String("type", e.Type),
			zap.String("target_id", e.TargetID),
			zap.Error(err))
	}
}

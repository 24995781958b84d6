// Package services layers business rules over the storage contract: status
// transitions, relationship integrity, plan limits, and audit events. The
// services consume the provider contract only, so they work identically over
// a single adapter or the composite router.
package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// ThingService enforces the status graph and records audit events around
// thing mutations.
type ThingService struct {
	provider types.Provider
	logger   *zap.Logger
}

// NewThingService builds a thing service. A nil logger disables logging.
func NewThingService(provider types.Provider, logger *zap.Logger) *ThingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThingService{provider: provider, logger: logger}
}

// Get retrieves a thing.
func (s *ThingService) Get(ctx context.Context, id string) (*types.Thing, error) {
	return s.provider.GetThing(ctx, id)
}

// List returns things matching the filter.
func (s *ThingService) List(ctx context.Context, filter types.ThingFilter) ([]*types.Thing, error) {
	return s.provider.ListThings(ctx, filter)
}

// Create persists a new thing and records a thing.created audit event.
func (s *ThingService) Create(ctx context.Context, actorID string, input *types.Thing) (*types.Thing, error) {
	created, err := s.provider.CreateThing(ctx, input)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, &types.Event{
		Type:     types.EventThingCreated,
		ActorID:  actorID,
		TargetID: created.ThingID,
		GroupID:  created.GroupID,
		Metadata: map[string]any{"thing_type": created.Type},
	})
	return created, nil
}

// Update applies a patch. A status change must follow the transition graph;
// anything else fails with invalid_status_transition before the backend is
// touched.
func (s *ThingService) Update(ctx context.Context, actorID, id string, patch types.ThingPatch) (*types.Thing, error) {
	if patch.Status != nil {
		current, err := s.provider.GetThing(ctx, id)
		if err != nil {
			return nil, err
		}
		if !types.CanTransition(current.Status, *patch.Status) {
			return nil, types.NewInvalidStatusTransition(current.Status, *patch.Status)
		}
	}

	updated, err := s.provider.UpdateThing(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, &types.Event{
		Type:     types.EventThingUpdated,
		ActorID:  actorID,
		TargetID: updated.ThingID,
		GroupID:  updated.GroupID,
	})
	return updated, nil
}

// Delete soft-deletes (archives) a thing and records a thing.archived audit
// event. Archived is reachable from every status, so no transition check.
func (s *ThingService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.provider.DeleteThing(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, &types.Event{
		Type:     types.EventThingArchived,
		ActorID:  actorID,
		TargetID: id,
	})
	return nil
}

// audit records an event best-effort. A failed audit write never rolls back
// the mutation it describes; it is logged and dropped.
func (s *ThingService) audit(ctx context.Context, e *types.Event) {
	if _, err := s.provider.CreateEvent(ctx, e); err != nil {
		s.logger.Warn("audit event dropped",
			zap.String("type", e.Type),
			zap.String("target_id", e.TargetID),
			zap.Error(err))
	}
}

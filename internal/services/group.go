package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// maxParentDepth bounds the parent-chain walk; a chain this deep is treated
// as a cycle.
const maxParentDepth = 32

// GroupService layers tenancy rules over the contract: unique slugs come
// from the adapter, while acyclic parent chains and plan-derived resource
// limits are enforced here.
type GroupService struct {
	provider types.Provider
	logger   *zap.Logger
}

// NewGroupService builds a group service. A nil logger disables logging.
func NewGroupService(provider types.Provider, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{provider: provider, logger: logger}
}

// Get retrieves a group by ID.
func (s *GroupService) Get(ctx context.Context, id string) (*types.Group, error) {
	return s.provider.GetGroup(ctx, id)
}

// GetBySlug retrieves a group by its unique slug.
func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*types.Group, error) {
	return s.provider.GetGroupBySlug(ctx, slug)
}

// List returns groups matching the filter.
func (s *GroupService) List(ctx context.Context, filter types.GroupFilter) ([]*types.Group, error) {
	return s.provider.ListGroups(ctx, filter)
}

// Create persists a new group after checking that the declared parent
// exists, and records a group.created audit event.
func (s *GroupService) Create(ctx context.Context, actorID string, input *types.Group) (*types.Group, error) {
	if input.ParentGroupID != "" {
		if _, err := s.provider.GetGroup(ctx, input.ParentGroupID); err != nil {
			return nil, err
		}
	}

	created, err := s.provider.CreateGroup(ctx, input)
	if err != nil {
		return nil, err
	}
	if _, err := s.provider.CreateEvent(ctx, &types.Event{
		Type:     types.EventGroupCreated,
		ActorID:  actorID,
		TargetID: created.GroupID,
		GroupID:  created.GroupID,
	}); err != nil {
		s.logger.Warn("audit event dropped",
			zap.String("type", types.EventGroupCreated),
			zap.String("target_id", created.GroupID),
			zap.Error(err))
	}
	return created, nil
}

// Update applies a patch. Re-parenting is rejected when it would close a
// cycle through the group itself.
func (s *GroupService) Update(ctx context.Context, id string, patch types.GroupPatch) (*types.Group, error) {
	if patch.ParentGroupID != nil && *patch.ParentGroupID != "" {
		if err := s.checkAcyclic(ctx, id, *patch.ParentGroupID); err != nil {
			return nil, err
		}
	}
	return s.provider.UpdateGroup(ctx, id, patch)
}

// Delete archives a group.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	return s.provider.DeleteGroup(ctx, id)
}

// checkAcyclic walks from newParent up the parent chain; finding groupID on
// the way means the re-parent would create a cycle.
func (s *GroupService) checkAcyclic(ctx context.Context, groupID, newParent string) error {
	current := newParent
	for depth := 0; current != ""; depth++ {
		if current == groupID {
			return types.NewValidationFailed("parent_group_id", "parent chain would form a cycle")
		}
		if depth >= maxParentDepth {
			return types.NewValidationFailed("parent_group_id", "parent chain too deep")
		}
		g, err := s.provider.GetGroup(ctx, current)
		if err != nil {
			return err
		}
		current = g.ParentGroupID
	}
	return nil
}

// CheckLimit fails with resource_limit_exceeded when the group's usage has
// reached its plan ceiling for the resource. A resource the plan does not
// define, or a zero limit, is unmetered.
func (s *GroupService) CheckLimit(ctx context.Context, groupID, resource string) error {
	g, err := s.provider.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	limit, ok := types.PlanLimit(g.Settings, resource)
	if !ok || limit <= 0 {
		return nil
	}
	if used := g.Usage[resource]; used >= limit {
		return types.NewResourceLimitExceeded(resource, used, limit)
	}
	return nil
}

// ConsumeResource checks the plan ceiling and then applies the delta. The
// check and the delta are not one atomic step; a concurrent consumer can
// briefly overshoot by one unit, which the plan model tolerates.
func (s *GroupService) ConsumeResource(ctx context.Context, groupID, resource string, delta int) (int, error) {
	if delta > 0 {
		if err := s.CheckLimit(ctx, groupID, resource); err != nil {
			return 0, err
		}
	}
	return s.provider.UpdateUsage(ctx, groupID, resource, delta)
}

// UpdateUsage applies a raw atomic delta with no limit check. Intended for
// reconciliation jobs; metered consumption goes through ConsumeResource.
func (s *GroupService) UpdateUsage(ctx context.Context, groupID, resource string, delta int) (int, error) {
	return s.provider.UpdateUsage(ctx, groupID, resource, delta)
}

package composite

import (
	"context"
	"errors"
	"sort"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// GetGroup routes by identifier prefix.
func (r *Router) GetGroup(ctx context.Context, id string) (*types.Group, error) {
	rt := r.routeForID(id)
	r.logDispatch("get_group", id, rt)
	return rt.provider.GetGroup(ctx, id)
}

// GetGroupBySlug probes routes in configured order, since a slug carries no
// routing information. The first hit wins; a non-NotFound failure on any
// route fails the lookup.
func (r *Router) GetGroupBySlug(ctx context.Context, slug string) (*types.Group, error) {
	for _, rt := range r.routes {
		g, err := rt.provider.GetGroupBySlug(ctx, slug)
		if err == nil {
			return g, nil
		}
		var ge *types.GroupError
		if errors.As(err, &ge) && ge.Code == types.CodeGroupNotFound {
			continue
		}
		return nil, err
	}
	return nil, types.NewGroupNotFound(slug)
}

// CreateGroup routes by the group's type tag.
func (r *Router) CreateGroup(ctx context.Context, input *types.Group) (*types.Group, error) {
	rt := r.routeForType(input.Type)
	r.logDispatch("create_group", input.Type, rt)
	return rt.provider.CreateGroup(ctx, input)
}

// UpdateGroup routes by identifier prefix.
func (r *Router) UpdateGroup(ctx context.Context, id string, patch types.GroupPatch) (*types.Group, error) {
	rt := r.routeForID(id)
	r.logDispatch("update_group", id, rt)
	return rt.provider.UpdateGroup(ctx, id, patch)
}

// DeleteGroup routes by identifier prefix.
func (r *Router) DeleteGroup(ctx context.Context, id string) error {
	rt := r.routeForID(id)
	r.logDispatch("delete_group", id, rt)
	return rt.provider.DeleteGroup(ctx, id)
}

// UpdateUsage routes by identifier prefix; the delta stays atomic because
// exactly one backend owns the counter.
func (r *Router) UpdateUsage(ctx context.Context, groupID, resource string, delta int) (int, error) {
	rt := r.routeForID(groupID)
	r.logDispatch("update_usage", groupID, rt)
	return rt.provider.UpdateUsage(ctx, groupID, resource, delta)
}

// ListGroups narrows by type tag like things; otherwise fans out and merges
// by creation time descending.
func (r *Router) ListGroups(ctx context.Context, filter types.GroupFilter) ([]*types.Group, error) {
	targets := r.narrowByType(filter.Type)
	if len(targets) == 1 {
		r.logDispatch("list_groups", filter.Type, targets[0])
		return targets[0].provider.ListGroups(ctx, filter)
	}

	inner := filter
	inner.Limit, inner.Offset = 0, 0
	merged, err := fanOut(ctx, targets, func(ctx context.Context, rt *route) ([]*types.Group, error) {
		return rt.provider.ListGroups(ctx, inner)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return window(merged, filter.Limit, filter.Offset), nil
}

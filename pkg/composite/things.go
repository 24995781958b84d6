package composite

import (
	"context"
	"sort"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// GetThing routes by identifier prefix.
func (r *Router) GetThing(ctx context.Context, id string) (*types.Thing, error) {
	rt := r.routeForID(id)
	r.logDispatch("get_thing", id, rt)
	return rt.provider.GetThing(ctx, id)
}

// CreateThing routes by the input's entity type tag.
func (r *Router) CreateThing(ctx context.Context, input *types.Thing) (*types.Thing, error) {
	rt := r.routeForType(input.Type)
	r.logDispatch("create_thing", input.Type, rt)
	return rt.provider.CreateThing(ctx, input)
}

// UpdateThing routes by identifier prefix.
func (r *Router) UpdateThing(ctx context.Context, id string, patch types.ThingPatch) (*types.Thing, error) {
	rt := r.routeForID(id)
	r.logDispatch("update_thing", id, rt)
	return rt.provider.UpdateThing(ctx, id, patch)
}

// DeleteThing routes by identifier prefix.
func (r *Router) DeleteThing(ctx context.Context, id string) error {
	rt := r.routeForID(id)
	r.logDispatch("delete_thing", id, rt)
	return rt.provider.DeleteThing(ctx, id)
}

// ListThings narrows to the owning route when the filter names a type owned
// by exactly one route; otherwise it fans out, merges, sorts by creation
// time descending, and windows after the full merge.
func (r *Router) ListThings(ctx context.Context, filter types.ThingFilter) ([]*types.Thing, error) {
	targets := r.narrowByType(filter.Type)
	if len(targets) == 1 {
		r.logDispatch("list_things", filter.Type, targets[0])
		return targets[0].provider.ListThings(ctx, filter)
	}

	inner := filter
	inner.Limit, inner.Offset = 0, 0
	merged, err := fanOut(ctx, targets, func(ctx context.Context, rt *route) ([]*types.Thing, error) {
		return rt.provider.ListThings(ctx, inner)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return window(merged, filter.Limit, filter.Offset), nil
}

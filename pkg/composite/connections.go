package composite

import (
	"context"
	"sort"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// GetConnection routes by identifier prefix.
func (r *Router) GetConnection(ctx context.Context, id string) (*types.Connection, error) {
	rt := r.routeForID(id)
	r.logDispatch("get_connection", id, rt)
	return rt.provider.GetConnection(ctx, id)
}

// CreateConnection routes by the source entity's identifier prefix, so an
// edge lives on the backend that owns its source.
func (r *Router) CreateConnection(ctx context.Context, input *types.Connection) (*types.Connection, error) {
	rt := r.routeForID(input.FromEntityID)
	r.logDispatch("create_connection", input.FromEntityID, rt)
	return rt.provider.CreateConnection(ctx, input)
}

// DeleteConnection routes by identifier prefix.
func (r *Router) DeleteConnection(ctx context.Context, id string) error {
	rt := r.routeForID(id)
	r.logDispatch("delete_connection", id, rt)
	return rt.provider.DeleteConnection(ctx, id)
}

// ListConnections narrows to the route owning the source entity when the
// filter names one; otherwise it fans out and merges by creation time
// descending.
func (r *Router) ListConnections(ctx context.Context, filter types.ConnectionFilter) ([]*types.Connection, error) {
	if filter.FromEntityID != "" {
		rt := r.routeForID(filter.FromEntityID)
		r.logDispatch("list_connections", filter.FromEntityID, rt)
		return rt.provider.ListConnections(ctx, filter)
	}

	inner := filter
	inner.Limit, inner.Offset = 0, 0
	merged, err := fanOut(ctx, r.routes, func(ctx context.Context, rt *route) ([]*types.Connection, error) {
		return rt.provider.ListConnections(ctx, inner)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return window(merged, filter.Limit, filter.Offset), nil
}

package composite

import (
	"context"
	"sort"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// GetEvent routes by identifier prefix.
func (r *Router) GetEvent(ctx context.Context, id string) (*types.Event, error) {
	rt := r.routeForID(id)
	r.logDispatch("get_event", id, rt)
	return rt.provider.GetEvent(ctx, id)
}

// CreateEvent always appends to the default route: the audit trail is
// platform-wide, like identity.
func (r *Router) CreateEvent(ctx context.Context, input *types.Event) (*types.Event, error) {
	r.logDispatch("create_event", input.Type, r.def)
	return r.def.provider.CreateEvent(ctx, input)
}

// ListEvents fans out to every route and merges by timestamp descending.
// Backends other than the default may hold their own native events, so the
// fan-out is unconditional.
func (r *Router) ListEvents(ctx context.Context, filter types.EventFilter) ([]*types.Event, error) {
	inner := filter
	inner.Limit, inner.Offset = 0, 0
	merged, err := fanOut(ctx, r.routes, func(ctx context.Context, rt *route) ([]*types.Event, error) {
		return rt.provider.ListEvents(ctx, inner)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	return window(merged, filter.Limit, filter.Offset), nil
}

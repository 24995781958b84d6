package composite

import (
	"context"
	"sort"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// GetKnowledge routes by identifier prefix.
func (r *Router) GetKnowledge(ctx context.Context, id string) (*types.Knowledge, error) {
	rt := r.routeForID(id)
	r.logDispatch("get_knowledge", id, rt)
	return rt.provider.GetKnowledge(ctx, id)
}

// CreateKnowledge routes by the source thing's identifier prefix when one
// is set, so derived knowledge lives next to its source; standalone items
// go to the default route.
func (r *Router) CreateKnowledge(ctx context.Context, input *types.Knowledge) (*types.Knowledge, error) {
	rt := r.def
	if input.SourceThingID != "" {
		rt = r.routeForID(input.SourceThingID)
	}
	r.logDispatch("create_knowledge", input.SourceThingID, rt)
	return rt.provider.CreateKnowledge(ctx, input)
}

// DeleteKnowledge routes by identifier prefix.
func (r *Router) DeleteKnowledge(ctx context.Context, id string) error {
	rt := r.routeForID(id)
	r.logDispatch("delete_knowledge", id, rt)
	return rt.provider.DeleteKnowledge(ctx, id)
}

// LinkKnowledge routes by the thing's identifier prefix: the join record
// lives on the backend owning the thing.
func (r *Router) LinkKnowledge(ctx context.Context, thingID, knowledgeID, role string) (*types.ThingKnowledge, error) {
	rt := r.routeForID(thingID)
	r.logDispatch("link_knowledge", thingID, rt)
	return rt.provider.LinkKnowledge(ctx, thingID, knowledgeID, role)
}

// ListKnowledge narrows to the route owning the source thing when the
// filter names one; otherwise it fans out and merges by creation time
// descending.
func (r *Router) ListKnowledge(ctx context.Context, filter types.KnowledgeFilter) ([]*types.Knowledge, error) {
	if filter.SourceThingID != "" {
		rt := r.routeForID(filter.SourceThingID)
		r.logDispatch("list_knowledge", filter.SourceThingID, rt)
		return rt.provider.ListKnowledge(ctx, filter)
	}

	inner := filter
	inner.Limit = 0
	merged, err := fanOut(ctx, r.routes, func(ctx context.Context, rt *route) ([]*types.Knowledge, error) {
		return rt.provider.ListKnowledge(ctx, inner)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return window(merged, filter.Limit, 0), nil
}

// SearchKnowledge fans out to every route, merges by similarity descending,
// and windows after the full merge. A filter scoped to one source thing
// queries only the owning route.
func (r *Router) SearchKnowledge(ctx context.Context, embedding []float32, opts types.SearchOptions) ([]*types.KnowledgeMatch, error) {
	if opts.SourceThingID != "" {
		rt := r.routeForID(opts.SourceThingID)
		r.logDispatch("search_knowledge", opts.SourceThingID, rt)
		return rt.provider.SearchKnowledge(ctx, embedding, opts)
	}

	inner := opts
	inner.Limit = 0
	merged, err := fanOut(ctx, r.routes, func(ctx context.Context, rt *route) ([]*types.KnowledgeMatch, error) {
		return rt.provider.SearchKnowledge(ctx, embedding, inner)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return window(merged, opts.Limit, 0), nil
}

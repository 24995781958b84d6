package composite

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// fanOut issues the same call against every route concurrently and
// concatenates the results in route order. Any single failure fails the
// aggregate (fail-all policy); the first error observed is returned
// unmodified so the caller still sees a taxonomy error.
func fanOut[T any](ctx context.Context, routes []*route, call func(context.Context, *route) ([]T, error)) ([]T, error) {
	if len(routes) == 1 {
		return call(ctx, routes[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	partial := make([][]T, len(routes))
	for i, rt := range routes {
		i, rt := i, rt
		g.Go(func() error {
			items, err := call(gctx, rt)
			if err != nil {
				return err
			}
			partial[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []T
	for _, items := range partial {
		merged = append(merged, items...)
	}
	return merged, nil
}

// window applies limit and offset after the merged sort. Per-backend
// truncation before merging would break global ordering, so callers zero
// the filter's limit and offset before fanning out and apply them here.
func window[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Package composite implements the provider contract by dispatching each
// call to one of several backend providers. Identifier-addressed operations
// route by ID prefix, creates route by entity-type tag, and unconstrained
// lists fan out to every backend and merge deterministically. The router
// holds no mutable state after construction and is safe for concurrent use.
//
// Partial-failure policy: fail-all. If any fanned-out backend fails, the
// aggregate call fails with that backend's taxonomy error rather than
// silently dropping its data.
package composite

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// Compile-time interface check: Router must implement Provider.
var _ types.Provider = (*Router)(nil)

// Route pairs one backend provider with the scope it owns: an optional set
// of entity-type tags, an optional identifier prefix, and a default flag.
// Exactly one route per router must be the default.
type Route struct {
	Name     string
	Provider types.Provider
	TypeTags []string
	IDPrefix string
	Default  bool
}

// Construction errors.
var (
	ErrNoRoutes        = errors.New("composite router needs at least one route")
	ErrNoDefaultRoute  = errors.New("exactly one route must be marked default")
	ErrManyDefaults    = errors.New("more than one route is marked default")
	ErrNilProvider     = errors.New("route has a nil provider")
)

// route is the resolved internal form of a Route.
type route struct {
	name     string
	provider types.Provider
	tags     map[string]bool
	prefix   string
	def      bool
}

// Router dispatches provider calls across an ordered route list.
type Router struct {
	routes []*route
	def    *route
	logger *zap.Logger
}

// New builds a router over the given routes. Construction fails fast when
// zero or more than one route is marked default, so a misconfigured router
// can never serve a request.
func New(logger *zap.Logger, routes ...Route) (*Router, error) {
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Router{logger: logger}
	for _, rc := range routes {
		if rc.Provider == nil {
			return nil, ErrNilProvider
		}
		rt := &route{
			name:     rc.Name,
			provider: rc.Provider,
			tags:     make(map[string]bool, len(rc.TypeTags)),
			prefix:   rc.IDPrefix,
			def:      rc.Default,
		}
		for _, tag := range rc.TypeTags {
			rt.tags[tag] = true
		}
		r.routes = append(r.routes, rt)
		if rc.Default {
			if r.def != nil {
				return nil, ErrManyDefaults
			}
			r.def = rt
		}
	}
	if r.def == nil {
		return nil, ErrNoDefaultRoute
	}
	return r, nil
}

// routeForID returns the first route whose prefix matches the identifier,
// falling back to the default route.
func (r *Router) routeForID(id string) *route {
	for _, rt := range r.routes {
		if rt.prefix != "" && strings.HasPrefix(id, rt.prefix) {
			return rt
		}
	}
	return r.def
}

// routeForType returns the first route tagged with the entity type, falling
// back to the default route.
func (r *Router) routeForType(entityType string) *route {
	for _, rt := range r.routes {
		if rt.tags[entityType] {
			return rt
		}
	}
	return r.def
}

// ownersOfType returns every route tagged with the entity type. A list
// filtered to a type owned by exactly one route skips the fan-out.
func (r *Router) ownersOfType(entityType string) []*route {
	var owners []*route
	for _, rt := range r.routes {
		if rt.tags[entityType] {
			owners = append(owners, rt)
		}
	}
	return owners
}

// narrowByType resolves a type-filtered list to the routes that can hold
// matching entities: the single tagged owner, the default route when no
// route claims the type, or the tagged subset when several do.
func (r *Router) narrowByType(entityType string) []*route {
	if entityType == "" {
		return r.routes
	}
	owners := r.ownersOfType(entityType)
	switch len(owners) {
	case 0:
		return []*route{r.def}
	default:
		return owners
	}
}

func (r *Router) logDispatch(op, key string, rt *route) {
	r.logger.Debug("dispatch",
		zap.String("op", op),
		zap.String("key", key),
		zap.String("route", rt.name))
}

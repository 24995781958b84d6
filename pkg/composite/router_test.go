package composite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// fakeProvider records which operations reached it and serves canned data.
// The embedded Provider panics on anything a test did not stub, which makes
// accidental dispatch to the wrong route loud.
type fakeProvider struct {
	types.Provider

	name     string
	idPrefix string

	mu     sync.Mutex
	calls  []string
	things []*types.Thing
	conns  []*types.Connection
	events []*types.Event
	matches []*types.KnowledgeMatch
	groups map[string]*types.Group // slug → group
	err    error
}

func (f *fakeProvider) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeProvider) calledOps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProvider) GetThing(_ context.Context, id string) (*types.Thing, error) {
	f.record("get:" + id)
	if f.err != nil {
		return nil, f.err
	}
	return &types.Thing{ThingID: id, Type: "task", Name: "from " + f.name}, nil
}

func (f *fakeProvider) CreateThing(_ context.Context, input *types.Thing) (*types.Thing, error) {
	f.record("create:" + input.Type)
	out := *input
	out.ThingID = f.idPrefix + "00000000-0000-7000-8000-000000000001"
	out.Status = types.StatusDraft
	return &out, nil
}

func (f *fakeProvider) ListThings(_ context.Context, filter types.ThingFilter) ([]*types.Thing, error) {
	f.record(fmt.Sprintf("list:type=%s,limit=%d", filter.Type, filter.Limit))
	if f.err != nil {
		return nil, f.err
	}
	return f.things, nil
}

func (f *fakeProvider) ListConnections(_ context.Context, filter types.ConnectionFilter) ([]*types.Connection, error) {
	f.record("list_conns:" + filter.FromEntityID)
	if f.err != nil {
		return nil, f.err
	}
	return f.conns, nil
}

func (f *fakeProvider) ListEvents(_ context.Context, _ types.EventFilter) ([]*types.Event, error) {
	f.record("list_events")
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeProvider) SearchKnowledge(_ context.Context, _ []float32, opts types.SearchOptions) ([]*types.KnowledgeMatch, error) {
	f.record(fmt.Sprintf("search:limit=%d", opts.Limit))
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func (f *fakeProvider) GetGroupBySlug(_ context.Context, slug string) (*types.Group, error) {
	f.record("slug:" + slug)
	if f.err != nil {
		return nil, f.err
	}
	g, ok := f.groups[slug]
	if !ok {
		return nil, types.NewGroupNotFound(slug)
	}
	return g, nil
}

func (f *fakeProvider) Login(_ context.Context, email, _ string) (*types.Session, error) {
	f.record("login:" + email)
	return &types.Session{Token: f.name + "-token"}, nil
}

func thingAt(id string, at time.Time) *types.Thing {
	return &types.Thing{ThingID: id, Type: "task", Name: id, CreatedAt: at}
}

func TestNewValidation(t *testing.T) {
	wp := &fakeProvider{name: "wp"}

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoRoutes)

	_, err = New(nil, Route{Name: "a", Provider: wp})
	assert.ErrorIs(t, err, ErrNoDefaultRoute)

	_, err = New(nil,
		Route{Name: "a", Provider: wp, Default: true},
		Route{Name: "b", Provider: wp, Default: true},
	)
	assert.ErrorIs(t, err, ErrManyDefaults)

	_, err = New(nil, Route{Name: "a", Default: true})
	assert.ErrorIs(t, err, ErrNilProvider)

	_, err = New(nil, Route{Name: "a", Provider: wp, Default: true})
	assert.NoError(t, err)
}

func TestRoutingDeterminismByPrefix(t *testing.T) {
	wp := &fakeProvider{name: "wp", idPrefix: "wp-"}
	def := &fakeProvider{name: "default"}
	r, err := New(nil,
		Route{Name: "wordpress", Provider: wp, IDPrefix: "wp-"},
		Route{Name: "main", Provider: def, Default: true},
	)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := r.GetThing(ctx, fmt.Sprintf("wp-%d", i))
		require.NoError(t, err)
	}
	for _, id := range []string{"anything-else", "mem-1", "", "w-123"} {
		_, err := r.GetThing(ctx, id)
		require.NoError(t, err)
	}

	assert.Len(t, wp.calledOps(), 10)
	assert.Len(t, def.calledOps(), 4)
}

func TestCreateRoutesByTypeTag(t *testing.T) {
	wp := &fakeProvider{name: "wp", idPrefix: "wp-"}
	def := &fakeProvider{name: "default", idPrefix: "m-"}
	r, err := New(nil,
		Route{Name: "wordpress", Provider: wp, IDPrefix: "wp-", TypeTags: []string{"blog_post", "page"}},
		Route{Name: "main", Provider: def, Default: true},
	)
	require.NoError(t, err)
	ctx := context.Background()

	post, err := r.CreateThing(ctx, &types.Thing{Type: "blog_post", Name: "Hello"})
	require.NoError(t, err)
	assert.Contains(t, post.ThingID, "wp-")

	task, err := r.CreateThing(ctx, &types.Thing{Type: "task", Name: "Chore"})
	require.NoError(t, err)
	assert.Contains(t, task.ThingID, "m-")
}

func TestListFanOutMergesDescending(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	a := &fakeProvider{name: "a", things: []*types.Thing{
		thingAt("a1", base.Add(4*time.Hour)),
		thingAt("a2", base.Add(1*time.Hour)),
	}}
	b := &fakeProvider{name: "b", things: []*types.Thing{
		thingAt("b1", base.Add(3*time.Hour)),
		thingAt("b2", base.Add(2*time.Hour)),
	}}
	r, err := New(nil,
		Route{Name: "a", Provider: a},
		Route{Name: "b", Provider: b, Default: true},
	)
	require.NoError(t, err)

	got, err := r.ListThings(context.Background(), types.ThingFilter{})
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, th := range got {
		ids[i] = th.ThingID
	}
	assert.Equal(t, []string{"a1", "b1", "b2", "a2"}, ids)
}

func TestListLimitAppliesAfterMerge(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	a := &fakeProvider{name: "a", things: []*types.Thing{
		thingAt("a1", base.Add(4*time.Hour)),
		thingAt("a2", base.Add(1*time.Hour)),
	}}
	b := &fakeProvider{name: "b", things: []*types.Thing{
		thingAt("b1", base.Add(3*time.Hour)),
		thingAt("b2", base.Add(2*time.Hour)),
	}}
	r, err := New(nil,
		Route{Name: "a", Provider: a},
		Route{Name: "b", Provider: b, Default: true},
	)
	require.NoError(t, err)

	got, err := r.ListThings(context.Background(), types.ThingFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a1", got[0].ThingID)
	assert.Equal(t, "b1", got[1].ThingID)
	assert.Equal(t, "b2", got[2].ThingID)

	// The limit must not reach the backends, or global ordering breaks.
	for _, f := range []*fakeProvider{a, b} {
		for _, op := range f.calledOps() {
			assert.Contains(t, op, "limit=0")
		}
	}
}

func TestListNarrowsToSingleOwner(t *testing.T) {
	wp := &fakeProvider{name: "wp", things: []*types.Thing{thingAt("wp-1", time.Now())}}
	def := &fakeProvider{name: "default"}
	r, err := New(nil,
		Route{Name: "wordpress", Provider: wp, TypeTags: []string{"blog_post"}},
		Route{Name: "main", Provider: def, Default: true},
	)
	require.NoError(t, err)

	got, err := r.ListThings(context.Background(), types.ThingFilter{Type: "blog_post", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Empty(t, def.calledOps(), "default route must not be queried")
	// Narrowed lists keep the caller's limit; only fan-outs strip it.
	assert.Contains(t, wp.calledOps()[0], "limit=5")
}

func TestFanOutFailsAll(t *testing.T) {
	boom := types.NewQueryFailed("backend unavailable", nil)
	a := &fakeProvider{name: "a", things: []*types.Thing{thingAt("a1", time.Now())}}
	b := &fakeProvider{name: "b", err: boom}
	r, err := New(nil,
		Route{Name: "a", Provider: a},
		Route{Name: "b", Provider: b, Default: true},
	)
	require.NoError(t, err)

	_, err = r.ListThings(context.Background(), types.ThingFilter{})
	require.Error(t, err)
	assert.Equal(t, types.CodeQueryFailed, types.CodeOf(err))
}

func TestEventsMergeByTimestamp(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	a := &fakeProvider{name: "a", events: []*types.Event{
		{EventID: "e2", Timestamp: base.Add(2 * time.Minute)},
	}}
	b := &fakeProvider{name: "b", events: []*types.Event{
		{EventID: "e3", Timestamp: base.Add(3 * time.Minute)},
		{EventID: "e1", Timestamp: base.Add(1 * time.Minute)},
	}}
	r, err := New(nil,
		Route{Name: "a", Provider: a},
		Route{Name: "b", Provider: b, Default: true},
	)
	require.NoError(t, err)

	got, err := r.ListEvents(context.Background(), types.EventFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e3", got[0].EventID)
	assert.Equal(t, "e2", got[1].EventID)
	assert.Equal(t, "e1", got[2].EventID)
}

func TestSearchMergesByScore(t *testing.T) {
	a := &fakeProvider{name: "a", matches: []*types.KnowledgeMatch{
		{Knowledge: &types.Knowledge{KnowledgeID: "k-low"}, Score: 0.2},
	}}
	b := &fakeProvider{name: "b", matches: []*types.KnowledgeMatch{
		{Knowledge: &types.Knowledge{KnowledgeID: "k-high"}, Score: 0.9},
		{Knowledge: &types.Knowledge{KnowledgeID: "k-mid"}, Score: 0.5},
	}}
	r, err := New(nil,
		Route{Name: "a", Provider: a},
		Route{Name: "b", Provider: b, Default: true},
	)
	require.NoError(t, err)

	got, err := r.SearchKnowledge(context.Background(), []float32{1, 0}, types.SearchOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "k-high", got[0].Knowledge.KnowledgeID)
	assert.Equal(t, "k-mid", got[1].Knowledge.KnowledgeID)
}

func TestAuthAlwaysUsesDefault(t *testing.T) {
	a := &fakeProvider{name: "a"}
	def := &fakeProvider{name: "default"}
	r, err := New(nil,
		Route{Name: "a", Provider: a, IDPrefix: "wp-"},
		Route{Name: "main", Provider: def, Default: true},
	)
	require.NoError(t, err)

	sess, err := r.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "default-token", sess.Token)
	assert.Empty(t, a.calledOps())
}

func TestGetGroupBySlugProbesInOrder(t *testing.T) {
	a := &fakeProvider{name: "a", groups: map[string]*types.Group{}}
	b := &fakeProvider{name: "b", groups: map[string]*types.Group{
		"acme": {GroupID: "g1", Slug: "acme"},
	}}
	r, err := New(nil,
		Route{Name: "a", Provider: a},
		Route{Name: "b", Provider: b, Default: true},
	)
	require.NoError(t, err)

	g, err := r.GetGroupBySlug(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "g1", g.GroupID)
	assert.Equal(t, []string{"slug:acme"}, a.calledOps())

	_, err = r.GetGroupBySlug(context.Background(), "ghost")
	assert.Equal(t, types.CodeGroupNotFound, types.CodeOf(err))
}

func TestListConnectionsNarrowsByFromPrefix(t *testing.T) {
	wp := &fakeProvider{name: "wp", conns: []*types.Connection{
		{ConnectionID: "wp-c1", FromEntityID: "wp-u1"},
	}}
	def := &fakeProvider{name: "default"}
	r, err := New(nil,
		Route{Name: "wordpress", Provider: wp, IDPrefix: "wp-"},
		Route{Name: "main", Provider: def, Default: true},
	)
	require.NoError(t, err)

	got, err := r.ListConnections(context.Background(), types.ConnectionFilter{FromEntityID: "wp-u1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, def.calledOps())
}

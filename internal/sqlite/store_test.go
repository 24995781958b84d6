package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "sq-")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestThingRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateThing(ctx, &types.Thing{
		Type: "task",
		Name: "Write release notes",
		Properties: map[string]any{
			"priority": 2,
			"assignee": "petra",
			"done":     false,
		},
	})
	require.NoError(t, err)
	assert.Contains(t, created.ThingID, "sq-")
	assert.Equal(t, types.StatusDraft, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetThing(ctx, created.ThingID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, "petra", got.Properties["assignee"])
	assert.Nil(t, got.DeletedAt)
}

func TestThingNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetThing(context.Background(), "sq-missing")
	assert.Equal(t, types.CodeThingNotFound, types.CodeOf(err))
}

func TestThingUpdatePatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateThing(ctx, &types.Thing{Type: "task", Name: "before"})
	require.NoError(t, err)

	name := "after"
	status := types.StatusActive
	updated, err := s.UpdateThing(ctx, created.ThingID, types.ThingPatch{
		Name:       &name,
		Status:     &status,
		Properties: map[string]any{"assignee": "after"},
	})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Name)
	assert.Equal(t, types.StatusActive, updated.Status)
	assert.Equal(t, "after", updated.Properties["assignee"])

	bad := "nonsense"
	_, err = s.UpdateThing(ctx, created.ThingID, types.ThingPatch{Status: &bad})
	assert.Equal(t, types.CodeThingUpdateFailed, types.CodeOf(err))
}

func TestThingSoftDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateThing(ctx, &types.Thing{Type: "task", Name: "doomed"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteThing(ctx, created.ThingID))

	got, err := s.GetThing(ctx, created.ThingID)
	require.NoError(t, err, "soft-deleted things stay readable")
	assert.Equal(t, types.StatusArchived, got.Status)
	require.NotNil(t, got.DeletedAt)

	err = s.DeleteThing(ctx, "sq-missing")
	assert.Equal(t, types.CodeThingNotFound, types.CodeOf(err))
}

func TestListThingsOrderingAndWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Second)
		s.now = func() time.Time { return tick }
		_, err := s.CreateThing(ctx, &types.Thing{Type: "task", Name: string(rune('a' + i))})
		require.NoError(t, err)
	}

	all, err := s.ListThings(ctx, types.ThingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "e", all[0].Name, "newest first")
	assert.Equal(t, "a", all[4].Name)

	page, err := s.ListThings(ctx, types.ThingFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "d", page[0].Name)
	assert.Equal(t, "c", page[1].Name)
}

func TestListThingsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateThing(ctx, &types.Thing{Type: "task", Name: "t1", GroupID: "g1"})
	require.NoError(t, err)
	_, err = s.CreateThing(ctx, &types.Thing{Type: "person", Name: "p1", GroupID: "g2"})
	require.NoError(t, err)

	byType, err := s.ListThings(ctx, types.ThingFilter{Type: "person"})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "p1", byType[0].Name)

	byGroup, err := s.ListThings(ctx, types.ThingFilter{GroupID: "g1"})
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, "t1", byGroup[0].Name)
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, "sq-")
	require.NoError(t, err)
	created, err := s.CreateThing(ctx, &types.Thing{Type: "task", Name: "durable"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(dir, "sq-")
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetThing(ctx, created.ThingID)
	require.NoError(t, err)
	assert.Equal(t, "durable", got.Name)
}

func TestConnectionRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateConnection(ctx, &types.Connection{
		FromEntityID:     "sq-a",
		ToEntityID:       "sq-b",
		RelationshipType: types.RelOwns,
		Metadata:         map[string]any{"weight": "high"},
	})
	require.NoError(t, err)

	got, err := s.GetConnection(ctx, created.ConnectionID)
	require.NoError(t, err)
	assert.Equal(t, "sq-a", got.FromEntityID)
	assert.Equal(t, "high", got.Metadata["weight"])

	require.NoError(t, s.DeleteConnection(ctx, created.ConnectionID))
	_, err = s.GetConnection(ctx, created.ConnectionID)
	assert.Equal(t, types.CodeConnectionNotFound, types.CodeOf(err), "connections are hard-deleted")
}

func TestListConnectionsByEndpoint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateConnection(ctx, &types.Connection{
		FromEntityID: "sq-a", ToEntityID: "sq-b", RelationshipType: types.RelOwns,
	})
	require.NoError(t, err)
	_, err = s.CreateConnection(ctx, &types.Connection{
		FromEntityID: "sq-c", ToEntityID: "sq-b", RelationshipType: types.RelChildOf,
	})
	require.NoError(t, err)

	from, err := s.ListConnections(ctx, types.ConnectionFilter{FromEntityID: "sq-a"})
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, types.RelOwns, from[0].RelationshipType)

	to, err := s.ListConnections(ctx, types.ConnectionFilter{ToEntityID: "sq-b"})
	require.NoError(t, err)
	assert.Len(t, to, 2)
}

func TestEventsAppendOnlyAndTimeFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.CreateEvent(ctx, &types.Event{
			Type:      types.EventThingCreated,
			ActorID:   "sq-user",
			TargetID:  "sq-thing",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := s.ListEvents(ctx, types.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Timestamp.After(all[2].Timestamp), "newest first")

	since := base.Add(time.Minute)
	later, err := s.ListEvents(ctx, types.EventFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, later, 2)

	_, err = s.CreateEvent(ctx, &types.Event{Type: "thing.created"})
	assert.Equal(t, types.CodeEventCreateFailed, types.CodeOf(err), "actor is required")
}

func TestKnowledgeSearchRanking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mk := func(text string, emb []float32) {
		_, err := s.CreateKnowledge(ctx, &types.Knowledge{
			KnowledgeType: types.KnowledgeChunk,
			Text:          text,
			Embedding:     emb,
		})
		require.NoError(t, err)
	}
	mk("near", []float32{1, 0, 0})
	mk("mid", []float32{0.7, 0.7, 0})
	mk("far", []float32{0, 0, 1})

	matches, err := s.SearchKnowledge(ctx, []float32{1, 0, 0}, types.SearchOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].Knowledge.Text)
	assert.Equal(t, "mid", matches[1].Knowledge.Text)

	strict, err := s.SearchKnowledge(ctx, []float32{1, 0, 0}, types.SearchOptions{MinScore: 0.9})
	require.NoError(t, err)
	require.Len(t, strict, 1)
	assert.Equal(t, "near", strict[0].Knowledge.Text)
}

func TestLinkKnowledge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	thing, err := s.CreateThing(ctx, &types.Thing{Type: "task", Name: "host"})
	require.NoError(t, err)
	k, err := s.CreateKnowledge(ctx, &types.Knowledge{
		KnowledgeType: types.KnowledgeLabel,
		Text:          "urgent",
	})
	require.NoError(t, err)

	link, err := s.LinkKnowledge(ctx, thing.ThingID, k.KnowledgeID, types.RoleLabel)
	require.NoError(t, err)
	assert.Equal(t, thing.ThingID, link.ThingID)

	_, err = s.LinkKnowledge(ctx, thing.ThingID, k.KnowledgeID, "bogus")
	assert.Equal(t, types.CodeValidationFailed, types.CodeOf(err))

	_, err = s.LinkKnowledge(ctx, "sq-missing", k.KnowledgeID, "")
	assert.Equal(t, types.CodeThingNotFound, types.CodeOf(err))
}

func TestGroupSlugUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := s.CreateGroup(ctx, &types.Group{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, types.GroupStatusActive, g.Status)

	bySlug, err := s.GetGroupBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, g.GroupID, bySlug.GroupID)

	_, err = s.CreateGroup(ctx, &types.Group{Slug: "acme", Name: "Imposter"})
	assert.Equal(t, types.CodeGroupCreateFailed, types.CodeOf(err))
}

func TestUpdateUsageFloorsAtZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := s.CreateGroup(ctx, &types.Group{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)

	n, err := s.UpdateUsage(ctx, g.GroupID, types.ResourceThings, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.UpdateUsage(ctx, g.GroupID, types.ResourceThings, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "counters never go below zero")

	got, err := s.GetGroup(ctx, g.GroupID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Usage[types.ResourceThings])

	_, err = s.UpdateUsage(ctx, "sq-missing", types.ResourceThings, 1)
	assert.Equal(t, types.CodeGroupNotFound, types.CodeOf(err))
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/mesh-intelligence/ontic/internal/vec"
	"github.com/mesh-intelligence/ontic/pkg/types"
)

const knowledgeColumns = "knowledge_id, knowledge_type, text, embedding, embedding_model, embedding_dim, source_thing_id, source_field, chunk, labels, group_id, created_at"

func hydrateKnowledge(row rowScanner) (*types.Knowledge, error) {
	var k types.Knowledge
	var embedding, labels, createdAt string
	var chunk sql.NullString
	err := row.Scan(&k.KnowledgeID, &k.KnowledgeType, &k.Text, &embedding,
		&k.EmbeddingModel, &k.EmbeddingDim, &k.SourceThingID, &k.SourceField,
		&chunk, &labels, &k.GroupID, &createdAt)
	if err != nil {
		return nil, err
	}
	if embedding != "" && embedding != "[]" {
		_ = json.Unmarshal([]byte(embedding), &k.Embedding)
	}
	if labels != "" && labels != "[]" {
		_ = json.Unmarshal([]byte(labels), &k.Labels)
	}
	if chunk.Valid {
		var cd types.ChunkDescriptor
		if json.Unmarshal([]byte(chunk.String), &cd) == nil {
			k.Chunk = &cd
		}
	}
	k.CreatedAt = parseTime(createdAt)
	return &k, nil
}

// GetKnowledge retrieves a knowledge item by ID.
func (s *Store) GetKnowledge(ctx context.Context, id string) (*types.Knowledge, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+knowledgeColumns+" FROM knowledge WHERE knowledge_id = ?", id)
	k, err := hydrateKnowledge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewKnowledgeNotFound(id)
		}
		return nil, types.NewQueryFailed("getting knowledge "+id, err)
	}
	return k, nil
}

// ListKnowledge returns knowledge items matching the filter, created_at
// descending. Query matches as a case-insensitive substring of the text.
func (s *Store) ListKnowledge(ctx context.Context, filter types.KnowledgeFilter) ([]*types.Knowledge, error) {
	var conds []string
	var args []any
	if filter.SourceThingID != "" {
		conds = append(conds, "source_thing_id = ?")
		args = append(args, filter.SourceThingID)
	}
	if filter.KnowledgeType != "" {
		conds = append(conds, "knowledge_type = ?")
		args = append(args, filter.KnowledgeType)
	}
	if filter.Query != "" {
		conds = append(conds, "text LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(filter.Query)+"%")
	}

	query := "SELECT " + knowledgeColumns + " FROM knowledge"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, knowledge_id DESC"
	query += limitClause(filter.Limit, 0)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.NewQueryFailed("listing knowledge", err)
	}
	defer rows.Close()

	results := make([]*types.Knowledge, 0)
	for rows.Next() {
		k, err := hydrateKnowledge(rows)
		if err != nil {
			return nil, types.NewQueryFailed("scanning knowledge row", err)
		}
		results = append(results, k)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewQueryFailed("listing knowledge", err)
	}
	return results, nil
}

// CreateKnowledge persists a new knowledge item.
func (s *Store) CreateKnowledge(ctx context.Context, input *types.Knowledge) (*types.Knowledge, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	k := *input
	k.KnowledgeID = s.newID()
	k.CreatedAt = s.now().UTC()
	if len(k.Embedding) > 0 && k.EmbeddingDim == 0 {
		k.EmbeddingDim = len(k.Embedding)
	}

	embedding, err := encodeSlice(k.Embedding)
	if err != nil {
		return nil, types.NewQueryFailed("encoding embedding", err)
	}
	labels, err := encodeSlice(k.Labels)
	if err != nil {
		return nil, types.NewQueryFailed("encoding labels", err)
	}
	var chunk any
	if k.Chunk != nil {
		raw, err := json.Marshal(k.Chunk)
		if err != nil {
			return nil, types.NewQueryFailed("encoding chunk descriptor", err)
		}
		chunk = string(raw)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO knowledge ("+knowledgeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		k.KnowledgeID, k.KnowledgeType, k.Text, embedding, k.EmbeddingModel,
		k.EmbeddingDim, k.SourceThingID, k.SourceField, chunk, labels,
		k.GroupID, formatTime(k.CreatedAt))
	if err != nil {
		return nil, types.NewQueryFailed("persisting knowledge", err)
	}
	return &k, nil
}

// DeleteKnowledge hard-deletes a knowledge item and its links.
func (s *Store) DeleteKnowledge(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.NewQueryFailed("beginning transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM knowledge WHERE knowledge_id = ?", id)
	if err != nil {
		return types.NewQueryFailed("deleting knowledge "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.NewQueryFailed("deleting knowledge "+id, err)
	}
	if n == 0 {
		return types.NewKnowledgeNotFound(id)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM thing_knowledge WHERE knowledge_id = ?", id); err != nil {
		return types.NewQueryFailed("deleting knowledge links", err)
	}
	return tx.Commit()
}

// LinkKnowledge attaches a knowledge item to a thing with an optional role.
// Both endpoints must exist.
func (s *Store) LinkKnowledge(ctx context.Context, thingID, knowledgeID, role string) (*types.ThingKnowledge, error) {
	if role != "" && !types.ValidKnowledgeRole(role) {
		return nil, types.NewValidationFailed("role", "unrecognized link role: "+role)
	}

	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM things WHERE thing_id = ?", thingID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewThingNotFound(thingID)
	} else if err != nil {
		return nil, types.NewQueryFailed("checking thing existence", err)
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT 1 FROM knowledge WHERE knowledge_id = ?", knowledgeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewKnowledgeNotFound(knowledgeID)
	} else if err != nil {
		return nil, types.NewQueryFailed("checking knowledge existence", err)
	}

	link := &types.ThingKnowledge{
		ThingID:     thingID,
		KnowledgeID: knowledgeID,
		Role:        role,
		CreatedAt:   s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO thing_knowledge (thing_id, knowledge_id, role, created_at) VALUES (?, ?, ?, ?)",
		link.ThingID, link.KnowledgeID, link.Role, formatTime(link.CreatedAt))
	if err != nil {
		return nil, types.NewQueryFailed("persisting knowledge link", err)
	}
	return link, nil
}

// SearchKnowledge ranks embeddable items by cosine similarity to the query
// vector, best first. Candidate narrowing happens in SQL; scoring happens
// in Go over the hydrated vectors.
func (s *Store) SearchKnowledge(ctx context.Context, embedding []float32, opts types.SearchOptions) ([]*types.KnowledgeMatch, error) {
	if len(embedding) == 0 {
		return nil, types.NewQueryFailed("search embedding must not be empty", nil)
	}

	conds := []string{"embedding != '[]'"}
	var args []any
	if opts.KnowledgeType != "" {
		conds = append(conds, "knowledge_type = ?")
		args = append(args, opts.KnowledgeType)
	}
	if opts.SourceThingID != "" {
		conds = append(conds, "source_thing_id = ?")
		args = append(args, opts.SourceThingID)
	}

	query := "SELECT " + knowledgeColumns + " FROM knowledge WHERE " + strings.Join(conds, " AND ")
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.NewQueryFailed("searching knowledge", err)
	}
	defer rows.Close()

	matches := make([]*types.KnowledgeMatch, 0)
	for rows.Next() {
		k, err := hydrateKnowledge(rows)
		if err != nil {
			return nil, types.NewQueryFailed("scanning knowledge row", err)
		}
		score := vec.Cosine(embedding, k.Embedding)
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, &types.KnowledgeMatch{Knowledge: k, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewQueryFailed("searching knowledge", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if opts.Limit > 0 && opts.Limit < len(matches) {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}

func encodeSlice[T any](v []T) (string, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

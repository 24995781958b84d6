package types

import (
	"context"
	"time"
)

// Knowledge kinds. Each kind has mandatory fields checked by Validate.
const (
	KnowledgeLabel      = "label"
	KnowledgeDocument   = "document"
	KnowledgeChunk      = "chunk"
	KnowledgeVectorOnly = "vector_only"
)

// ThingKnowledge role tags.
const (
	RoleLabel   = "label"
	RoleSummary = "summary"
	RoleChunkOf = "chunk_of"
	RoleCaption = "caption"
	RoleKeyword = "keyword"
)

// validKnowledgeRoles is the recognized role set for thing-knowledge links.
var validKnowledgeRoles = map[string]bool{
	RoleLabel: true, RoleSummary: true, RoleChunkOf: true,
	RoleCaption: true, RoleKeyword: true,
}

// ValidKnowledgeRole reports whether r is a recognized link role.
func ValidKnowledgeRole(r string) bool {
	return validKnowledgeRoles[r]
}

// ChunkDescriptor locates a chunk within its source document.
type ChunkDescriptor struct {
	Index int `json:"index"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Knowledge is a searchable content unit: a label, a document, a chunk of a
// document, or a bare vector. Re-embedding produces a new record; existing
// records are never mutated.
type Knowledge struct {
	KnowledgeID    string           `json:"knowledge_id"`
	KnowledgeType  string           `json:"knowledge_type"`
	Text           string           `json:"text,omitempty"`
	Embedding      []float32        `json:"embedding,omitempty"`
	EmbeddingModel string           `json:"embedding_model,omitempty"`
	EmbeddingDim   int              `json:"embedding_dim,omitempty"`
	SourceThingID  string           `json:"source_thing_id,omitempty"`
	SourceField    string           `json:"source_field,omitempty"`
	Chunk          *ChunkDescriptor `json:"chunk,omitempty"`
	Labels         []string         `json:"labels,omitempty"`
	GroupID        string           `json:"group_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Validate enforces the per-kind mandatory fields: label requires text,
// chunk requires text and embedding, vector_only requires embedding.
func (k *Knowledge) Validate() error {
	switch k.KnowledgeType {
	case KnowledgeLabel:
		if k.Text == "" {
			return NewValidationFailed("text", "label knowledge requires text")
		}
	case KnowledgeDocument:
		if k.Text == "" {
			return NewValidationFailed("text", "document knowledge requires text")
		}
	case KnowledgeChunk:
		if k.Text == "" {
			return NewValidationFailed("text", "chunk knowledge requires text")
		}
		if len(k.Embedding) == 0 {
			return NewValidationFailed("embedding", "chunk knowledge requires an embedding")
		}
	case KnowledgeVectorOnly:
		if len(k.Embedding) == 0 {
			return NewValidationFailed("embedding", "vector_only knowledge requires an embedding")
		}
	default:
		return NewValidationFailed("knowledge_type", "unrecognized knowledge type: "+k.KnowledgeType)
	}
	return nil
}

// ThingKnowledge links a thing to a knowledge item with an optional role.
type ThingKnowledge struct {
	ThingID     string    `json:"thing_id"`
	KnowledgeID string    `json:"knowledge_id"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// KnowledgeMatch is one search result: the matched item and its similarity
// score in [0, 1], higher is closer.
type KnowledgeMatch struct {
	Knowledge *Knowledge `json:"knowledge"`
	Score     float64    `json:"score"`
}

// Embedder turns text into an embedding vector. The concrete model is an
// external collaborator supplied by the caller; it honors ctx so a slow
// model call can be cancelled.
type Embedder func(ctx context.Context, text string) ([]float32, error)

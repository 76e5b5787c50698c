// Package models defines core data structures for knowledge units, queries, and API payloads.
package models

// Metadata source type values for knowledge units.
const (
	SourceTypeMemory       = "memory"
	SourceTypeConversation = "conversation"
	SourceTypeManual       = "manual"
)

// KnowledgeUnit is one chunk of text plus its embedding and metadata, stored for retrieval.
// The ID is derived deterministically from source identity and position, so re-syncing
// the same input upserts in place instead of duplicating.
type KnowledgeUnit struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Embedding []float32         `json:"-"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SearchHit is one retrieved knowledge unit with its cosine distance to the query.
type SearchHit struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Distance float64           `json:"distance"`
}

// ContextItem is one entry of a per-query context bundle, below the distance cutoff.
type ContextItem struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Distance float64           `json:"distance"`
}

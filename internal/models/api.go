package models

import "fmt"

// SearchRequest is a vector search request.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate checks the request and normalizes TopK against the given default and ceiling.
func (r *SearchRequest) Validate(defaultTopK int) error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.TopK <= 0 {
		r.TopK = defaultTopK
	}
	if r.TopK > 100 {
		r.TopK = 100
	}
	return nil
}

// SearchResponse holds raw search hits in store ranking order.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
	Count   int         `json:"count"`
}

// QueryRequest is a RAG query: retrieve context, then generate an answer.
// Temperature is a pointer so an explicit zero (greedy decoding) is
// distinguishable from an absent field.
type QueryRequest struct {
	Query        string   `json:"query"`
	TopK         int      `json:"top_k,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
}

const defaultQueryTemperature = 0.3

// TemperatureOrDefault returns the requested generation temperature,
// defaulting when the request left it unset.
func (r *QueryRequest) TemperatureOrDefault() float64 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return defaultQueryTemperature
}

// Validate checks the request and normalizes TopK.
func (r *QueryRequest) Validate(defaultTopK int) error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.TopK <= 0 {
		r.TopK = defaultTopK
	}
	if r.TopK > 100 {
		r.TopK = 100
	}
	if r.Temperature != nil && *r.Temperature < 0 {
		return fmt.Errorf("temperature cannot be negative")
	}
	return nil
}

// SourceRef is a truncated attribution entry in a query response.
type SourceRef struct {
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// QueryResponse is the generated answer plus its retrieved sources.
type QueryResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
	Model   string      `json:"model"`
}

// IngestRequest ingests documents directly into the vector store.
type IngestRequest struct {
	Documents []string            `json:"documents"`
	Metadatas []map[string]string `json:"metadatas,omitempty"`
	IDs       []string            `json:"ids,omitempty"`
}

// IngestResponse reports how many documents were ingested and the store total.
type IngestResponse struct {
	Ingested int `json:"ingested"`
	Total    int `json:"total"`
}

// SyncResponse reports a full synchronization pass.
type SyncResponse struct {
	Synced int `json:"synced"`
	Total  int `json:"total"`
}

// ClassifyRequest asks whether a message can stay on the local model.
type ClassifyRequest struct {
	Message string `json:"message"`
}

// ClassifyResponse is the routing decision for one message.
type ClassifyResponse struct {
	Category   string `json:"category"`
	Confidence string `json:"confidence"`
}

// HealthResponse reports service and model-host health.
type HealthResponse struct {
	Status     string `json:"status"`
	Ollama     bool   `json:"ollama"`
	EmbedModel string `json:"embed_model"`
	ChatModel  string `json:"chat_model"`
	Documents  int    `json:"documents"`
}

// StatsResponse reports collection statistics.
type StatsResponse struct {
	TotalDocuments int    `json:"total_documents"`
	CollectionName string `json:"collection_name"`
	DatabasePath   string `json:"database_path,omitempty"`
}

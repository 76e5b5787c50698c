// Package search implements vector search, thresholded retrieval, and
// retrieval-augmented answer generation.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/ollama"
	"github.com/hyperjump/kioku/internal/store"
	"github.com/hyperjump/kioku/pkg/utils"
)

const defaultSystemPrompt = "You are a personal AI assistant. " +
	"Answer based on the personal knowledge context provided. " +
	"If the context doesn't contain the answer, say so honestly. " +
	"Be concise and direct."

const sourceTextLimit = 200

// Generator is the answer-generation collaborator.
type Generator interface {
	Chat(ctx context.Context, messages []ollama.ChatMessage, temperature float64) (string, error)
	ChatModel() string
}

// Retriever serves vector search and RAG queries over the knowledge store.
type Retriever struct {
	store     store.Store
	embedder  embedding.Embedder
	generator Generator
	cfg       *config.KnowledgeConfig
	logger    *zap.Logger
}

// NewRetriever creates a retriever over the given collaborators.
func NewRetriever(st store.Store, embedder embedding.Embedder, generator Generator, cfg *config.KnowledgeConfig, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		store:     st,
		embedder:  embedder,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Search embeds the query once and returns the topK nearest units by cosine
// distance, unfiltered. An empty store yields an empty result, not an error.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]models.SearchHit, error) {
	count, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.store.Query(ctx, vec, topK)
}

// Retrieve runs Search and keeps only hits whose distance is below the
// configured cutoff. The cutoff is a relevance gate; the store's ranking
// order among retained items is preserved as-is.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]models.ContextItem, error) {
	hits, err := r.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	var items []models.ContextItem
	for _, hit := range hits {
		if hit.Distance < r.cfg.DistanceCutoff {
			items = append(items, models.ContextItem{
				Text:     hit.Text,
				Metadata: hit.Metadata,
				Distance: hit.Distance,
			})
		}
	}
	return items, nil
}

// Query retrieves context for the query, folds it into the system prompt, and
// asks the generator for an answer. With no context within the cutoff, the
// generator still runs on the bare system prompt.
func (r *Retriever) Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	items, err := r.Retrieve(ctx, req.Query, req.TopK)
	if err != nil {
		return nil, err
	}

	system := req.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	if len(items) > 0 {
		system += "\n\n## Personal Knowledge Context\n\n" + buildContextText(items)
	}

	messages := []ollama.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: req.Query},
	}
	answer, err := r.generator.Chat(ctx, messages, req.TemperatureOrDefault())
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]models.SourceRef, 0, len(items))
	for _, item := range items {
		sources = append(sources, models.SourceRef{
			Text:     utils.TruncateRunes(item.Text, sourceTextLimit),
			Distance: item.Distance,
		})
	}

	r.logger.Debug("query answered",
		zap.Int("context_items", len(items)),
		zap.Int("answer_len", len(answer)))

	return &models.QueryResponse{
		Answer:  answer,
		Sources: sources,
		Model:   r.generator.ChatModel(),
	}, nil
}

func buildContextText(items []models.ContextItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		source := item.Metadata["source"]
		if source == "" {
			source = "unknown"
		}
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", source, item.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

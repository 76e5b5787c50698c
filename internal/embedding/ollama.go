package embedding

import (
	"context"

	"github.com/hyperjump/kioku/internal/ollama"
)

// OllamaEmbedder implements Embedder on top of the model host client,
// with an LRU cache so identical texts embed once per process.
type OllamaEmbedder struct {
	client     *ollama.Client
	dimensions int
	cache      *EmbeddingCache
}

// NewOllamaEmbedder wraps client with the given embedding dimensionality and cache size.
func NewOllamaEmbedder(client *ollama.Client, dimensions, cacheSize int) *OllamaEmbedder {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	return &OllamaEmbedder{
		client:     client,
		dimensions: dimensions,
		cache:      NewEmbeddingCache(cacheSize),
	}
}

// Embed returns the embedding for text, from cache when available.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if emb, ok := e.cache.Get(text); ok {
		return emb, nil
	}
	emb, err := e.client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (e *OllamaEmbedder) Close() error {
	return nil
}

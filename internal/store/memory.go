package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/pkg/utils"
)

// MemoryStore is an in-memory Store for tests and small datasets.
type MemoryStore struct {
	mu    sync.RWMutex
	units map[string]models.KnowledgeUnit
	order []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{units: make(map[string]models.KnowledgeUnit)}
}

// Upsert inserts or overwrites the unit under its id.
func (m *MemoryStore) Upsert(ctx context.Context, unit models.KnowledgeUnit) error {
	vec := make([]float32, len(unit.Embedding))
	copy(vec, unit.Embedding)
	utils.NormalizeL2(vec)
	unit.Embedding = vec

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.units[unit.ID]; !ok {
		m.order = append(m.order, unit.ID)
	}
	m.units[unit.ID] = unit
	return nil
}

// Query returns up to topK hits by ascending cosine distance.
func (m *MemoryStore) Query(ctx context.Context, embedding []float32, topK int) ([]models.SearchHit, error) {
	if topK <= 0 {
		return nil, nil
	}
	q := make([]float32, len(embedding))
	copy(q, embedding)
	utils.NormalizeL2(q)

	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := make([]models.SearchHit, 0, len(m.order))
	for _, id := range m.order {
		unit := m.units[id]
		hits = append(hits, models.SearchHit{
			ID:       unit.ID,
			Text:     unit.Text,
			Metadata: unit.Metadata,
			Distance: CosineDistance(q, unit.Embedding),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

// Count returns the number of stored units.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.units), nil
}

// Get returns the stored unit by id, if present.
func (m *MemoryStore) Get(id string) (models.KnowledgeUnit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	unit, ok := m.units[id]
	return unit, ok
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}

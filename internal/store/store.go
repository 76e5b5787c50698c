// Package store provides the vector record store: upsert, nearest-neighbor
// query, and count over knowledge units.
package store

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/hyperjump/kioku/internal/models"
)

// Store is the vector-store collaborator boundary. Upserting under an existing
// id overwrites in place; that, plus deterministic ids upstream, is what makes
// re-sync idempotent. Query returns hits ordered by ascending cosine distance.
type Store interface {
	Upsert(ctx context.Context, unit models.KnowledgeUnit) error
	Query(ctx context.Context, embedding []float32, topK int) ([]models.SearchHit, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// CosineDistance returns 1 minus the inner product of two unit-normalized
// vectors, clamped to [0, 2]. Mismatched or empty vectors are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	d := 1 - dot
	return math.Max(0, math.Min(2, d))
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

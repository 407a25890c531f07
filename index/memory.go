package index

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process VectorStore for tests and local runs
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

// NewMemoryStore creates an empty in-memory vector store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]Record)}
}

// Upsert stores rec, replacing any vector previously stored for the document
func (s *MemoryStore) Upsert(_ context.Context, rec Record) error {
	vec := make([]float32, len(rec.Vector))
	copy(vec, rec.Vector)
	rec.Vector = vec

	s.mu.Lock()
	s.records[rec.DocumentID] = rec
	s.mu.Unlock()
	return nil
}

// Search ranks stored vectors of modelVersion against vector
func (s *MemoryStore) Search(_ context.Context, vector []float32, modelVersion string, k int) ([]Hit, error) {
	type scored struct {
		rec Record
		sim float64
	}

	s.mu.RLock()
	candidates := make([]scored, 0, len(s.records))
	for _, rec := range s.records {
		if rec.ModelVersion != modelVersion {
			continue
		}
		candidates = append(candidates, scored{rec: rec, sim: Cosine(vector, rec.Vector)})
	}
	s.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.sim != b.sim {
			return a.sim > b.sim
		}
		if !a.rec.FiledDate.Equal(b.rec.FiledDate) {
			return a.rec.FiledDate.After(b.rec.FiledDate)
		}
		return a.rec.DocumentID.String() < b.rec.DocumentID.String()
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	hits := make([]Hit, len(candidates))
	for i, c := range candidates {
		hits[i] = Hit{DocumentID: c.rec.DocumentID, Similarity: c.sim}
	}
	return hits, nil
}

// Similarities scores the given documents against vector
func (s *MemoryStore) Similarities(_ context.Context, vector []float32, modelVersion string, ids []uuid.UUID) (map[uuid.UUID]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]float64, len(ids))
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok || rec.ModelVersion != modelVersion {
			continue
		}
		out[id] = Cosine(vector, rec.Vector)
	}
	return out, nil
}

// Len returns the number of stored vectors
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

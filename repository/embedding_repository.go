package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"nyaydarpan-backend/index"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmbeddingRepository stores case vectors in pgvector and implements index.VectorStore
type EmbeddingRepository struct {
	db *pgxpool.Pool
}

// NewEmbeddingRepository creates a new embedding repository
func NewEmbeddingRepository(db *pgxpool.Pool) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

var _ index.VectorStore = (*EmbeddingRepository)(nil)

// formatVector formats an embedding vector as a pgvector literal
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', 6, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Upsert writes or replaces the vector for one document
func (r *EmbeddingRepository) Upsert(ctx context.Context, rec index.Record) error {
	query := `
		INSERT INTO case_embeddings (document_id, model_version, embedding, updated_at)
		VALUES ($1, $2, $3::vector, NOW())
		ON CONFLICT (document_id) DO UPDATE SET
			model_version = EXCLUDED.model_version,
			embedding = EXCLUDED.embedding,
			updated_at = NOW()`

	_, err := r.db.Exec(ctx, query, rec.DocumentID, rec.ModelVersion, formatVector(rec.Vector))
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// searchQuery takes the nearest vectors in an inner query ordered by distance
// alone so the HNSW index serves it, then applies the tie-break outside
const searchQuery = `
		SELECT
			e.document_id,
			1 - e.distance AS similarity
		FROM (
			SELECT document_id, embedding <=> $1::vector AS distance
			FROM case_embeddings
			WHERE model_version = $2
			ORDER BY embedding <=> $1::vector
			LIMIT $3
		) e
		JOIN case_documents d ON d.id = e.document_id
		ORDER BY
			e.distance,
			d.filed_date DESC,
			d.id
		LIMIT $4`

// searchHeadroom is how many nearest vectors the inner query fetches for k
// results, leaving room for ties at the cut-off
func searchHeadroom(k int) int {
	return k + max(k/2, 10)
}

// Search performs a cosine similarity search over current-model vectors
func (r *EmbeddingRepository) Search(ctx context.Context, vector []float32, modelVersion string, k int) ([]index.Hit, error) {
	if k <= 0 {
		return []index.Hit{}, nil
	}

	rows, err := r.db.Query(ctx, searchQuery, formatVector(vector), modelVersion, searchHeadroom(k), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	hits := []index.Hit{}
	for rows.Next() {
		var hit index.Hit
		if err := rows.Scan(&hit.DocumentID, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hit.Similarity = index.ClampSimilarity(hit.Similarity)
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search hits: %w", err)
	}
	return hits, nil
}

// Similarities scores specific documents against vector
func (r *EmbeddingRepository) Similarities(ctx context.Context, vector []float32, modelVersion string, ids []uuid.UUID) (map[uuid.UUID]float64, error) {
	query := `
		SELECT document_id, 1 - (embedding <=> $1::vector)
		FROM case_embeddings
		WHERE model_version = $2
			AND document_id = ANY($3)`

	rows, err := r.db.Query(ctx, query, formatVector(vector), modelVersion, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query similarities: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]float64, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var sim float64
		if err := rows.Scan(&id, &sim); err != nil {
			return nil, fmt.Errorf("failed to scan similarity: %w", err)
		}
		out[id] = index.ClampSimilarity(sim)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating similarities: %w", err)
	}
	return out, nil
}

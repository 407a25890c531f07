package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"nyaydarpan-backend/models"

	"github.com/google/uuid"
)

// ErrEmbeddingUnavailable is returned when the embedding backend cannot produce a vector
var ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

// ErrDimensionMismatch is returned when a vector does not have the index's fixed length
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// maxDocumentRunes bounds the case text sent to the embedding model
const maxDocumentRunes = 8000

// TaskType tells the embedder what the text will be used for
type TaskType int

const (
	TaskDocument TaskType = iota
	TaskQuery
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string, task TaskType) ([]float32, error)
	ModelVersion() string
}

// Record is one stored vector plus the metadata needed to break ranking ties
type Record struct {
	models.EmbeddingVector
	FiledDate time.Time
}

// Hit is a single search result
type Hit struct {
	DocumentID uuid.UUID
	Similarity float64
}

// VectorStore persists vectors and answers cosine similarity queries.
// Only vectors with the given model version are considered.
type VectorStore interface {
	Upsert(ctx context.Context, rec Record) error
	Search(ctx context.Context, vector []float32, modelVersion string, k int) ([]Hit, error)
	Similarities(ctx context.Context, vector []float32, modelVersion string, ids []uuid.UUID) (map[uuid.UUID]float64, error)
}

// Index embeds case documents and searches them by vector similarity
type Index struct {
	embedder   Embedder
	store      VectorStore
	dimensions int
}

// New creates an index over store using embedder for vectors of the given length
func New(embedder Embedder, store VectorStore, dimensions int) *Index {
	return &Index{
		embedder:   embedder,
		store:      store,
		dimensions: dimensions,
	}
}

// ModelVersion returns the version of the embedding model currently in use
func (ix *Index) ModelVersion() string {
	return ix.embedder.ModelVersion()
}

// Upsert embeds doc and stores its vector. Calling it twice for the same
// document replaces the vector.
func (ix *Index) Upsert(ctx context.Context, doc *models.CaseDocument) error {
	if doc == nil {
		return errors.New("nil document")
	}

	vec, err := ix.embed(ctx, DocumentText(doc), TaskDocument)
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
	}

	rec := Record{
		EmbeddingVector: models.EmbeddingVector{
			DocumentID:   doc.ID,
			Vector:       vec,
			ModelVersion: ix.embedder.ModelVersion(),
		},
		FiledDate: doc.FiledDate,
	}
	if err := ix.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", doc.ID, err)
	}
	return nil
}

// EmbedQuery embeds a retrieval query
func (ix *Index) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return ix.embed(ctx, text, TaskQuery)
}

// Search returns up to k documents by descending cosine similarity.
// Ties are broken by more recent filed date, then by document ID.
func (ix *Index) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}
	if len(vector) != ix.dimensions {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, ix.dimensions, len(vector))
	}
	hits, err := ix.store.Search(ctx, vector, ix.embedder.ModelVersion(), k)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []Hit{}
	}
	return hits, nil
}

// Similarities returns the cosine similarity between vector and each of ids
// that has a current embedding
func (ix *Index) Similarities(ctx context.Context, vector []float32, ids []uuid.UUID) (map[uuid.UUID]float64, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]float64{}, nil
	}
	return ix.store.Similarities(ctx, vector, ix.embedder.ModelVersion(), ids)
}

func (ix *Index) embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	vec, err := ix.embedder.Embed(ctx, text, task)
	if err != nil {
		if errors.Is(err, ErrEmbeddingUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(vec) != ix.dimensions {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, ix.dimensions, len(vec))
	}
	return Normalize(vec), nil
}

// DocumentText builds the text embedded for a case, prefixed with its metadata tags
func DocumentText(doc *models.CaseDocument) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[CASE: %s]\n", doc.Title)
	if len(doc.PartyNames) > 0 {
		fmt.Fprintf(&b, "[PARTIES: %s]\n", strings.Join(doc.PartyNames, "; "))
	}
	if len(doc.DefendantNames) > 0 {
		fmt.Fprintf(&b, "[DEFENDANTS: %s]\n", strings.Join(doc.DefendantNames, "; "))
	}
	fmt.Fprintf(&b, "[OUTCOME: %s]\n", doc.Outcome)
	fmt.Fprintf(&b, "[CASE_TYPE: %s]\n", doc.CaseType)
	if doc.Court != "" {
		fmt.Fprintf(&b, "[COURT: %s]\n", doc.Court)
	}
	b.WriteString("\n")

	text := []rune(doc.FullText)
	if len(text) > maxDocumentRunes {
		text = text[:maxDocumentRunes]
	}
	b.WriteString(string(text))

	return b.String()
}

// Normalize scales v to unit L2 norm. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}

	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Cosine returns the cosine similarity of a and b mapped onto [0,1].
// Mismatched or zero vectors have similarity 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return ClampSimilarity(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// ClampSimilarity folds a raw cosine into [0,1]; opposite vectors count as unrelated
func ClampSimilarity(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

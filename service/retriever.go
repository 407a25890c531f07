package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"nyaydarpan-backend/config"
	"nyaydarpan-backend/index"
	"nyaydarpan-backend/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// CaseStore is the read side of the corpus used at query time
type CaseStore interface {
	FindByPartyTokens(ctx context.Context, tokens []string, modelVersion string, limit int) ([]models.CaseDocument, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.CaseDocument, error)
}

// CaseIndex is the vector side of the corpus used at query time
type CaseIndex interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Search(ctx context.Context, vector []float32, k int) ([]index.Hit, error)
	Similarities(ctx context.Context, vector []float32, ids []uuid.UUID) (map[uuid.UUID]float64, error)
	ModelVersion() string
}

var _ CaseIndex = (*index.Index)(nil)

// Candidate is a ranked case together with the document it was built from
type Candidate struct {
	Case     models.RetrievedCase
	Document *models.CaseDocument
}

// CaseRetriever finds cases involving a counterparty by merging a name-match
// pool with a semantic pool
type CaseRetriever struct {
	store  CaseStore
	index  CaseIndex
	policy config.RetrievalPolicy
}

// NewCaseRetriever creates a retriever over store and idx
func NewCaseRetriever(store CaseStore, idx CaseIndex, policy config.RetrievalPolicy) *CaseRetriever {
	return &CaseRetriever{
		store:  store,
		index:  idx,
		policy: policy,
	}
}

// BuildQuery prepares a retrieval query for a raw counterparty name
func BuildQuery(rawName, freeText string, limit int) models.RetrievalQuery {
	return models.RetrievalQuery{
		RawName:           strings.TrimSpace(rawName),
		NormalizedAliases: Aliases(rawName),
		FreeTextContext:   strings.TrimSpace(freeText),
		Limit:             limit,
	}
}

// Retrieve returns up to q.Limit candidates ordered by composite score, then
// filed date (newest first), then document ID. Documents whose name match is
// below the configured minimum are never returned. No match is not an error.
func (r *CaseRetriever) Retrieve(ctx context.Context, q models.RetrievalQuery) ([]Candidate, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	aliases := q.NormalizedAliases
	if len(aliases) == 0 {
		aliases = Aliases(q.RawName)
	}
	if len(aliases) == 0 {
		return nil, fmt.Errorf("%w: empty counterparty name", ErrInvalidInput)
	}

	modelVersion := r.index.ModelVersion()

	namePool, err := r.store.FindByPartyTokens(ctx, LookupTokens(aliases), modelVersion, r.policy.NamePoolSize)
	if err != nil {
		return nil, fmt.Errorf("%w: name lookup: %w", ErrRetrievalUnavailable, err)
	}

	queryText := q.RawName
	if q.FreeTextContext != "" {
		queryText += " " + q.FreeTextContext
	}
	vec, err := r.index.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}

	k := r.policy.SemanticPoolSize
	if q.Limit > k {
		k = q.Limit
	}
	hits, err := r.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}

	type merged struct {
		doc        *models.CaseDocument
		similarity float64
		hasSim     bool
	}
	pool := make(map[uuid.UUID]*merged, len(namePool)+len(hits))
	for i := range namePool {
		doc := &namePool[i]
		pool[doc.ID] = &merged{doc: doc}
	}

	var missing []uuid.UUID
	for _, h := range hits {
		if m, ok := pool[h.DocumentID]; ok {
			m.similarity, m.hasSim = h.Similarity, true
			continue
		}
		pool[h.DocumentID] = &merged{similarity: h.Similarity, hasSim: true}
		missing = append(missing, h.DocumentID)
	}

	if len(missing) > 0 {
		docs, err := r.store.GetByIDs(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("%w: load documents: %w", ErrRetrievalUnavailable, err)
		}
		for _, id := range missing {
			if doc, ok := docs[id]; ok {
				pool[id].doc = doc
			}
		}
	}

	var needSim []uuid.UUID
	for id, m := range pool {
		if !m.hasSim && m.doc != nil {
			needSim = append(needSim, id)
		}
	}
	if len(needSim) > 0 {
		sims, err := r.index.Similarities(ctx, vec, needSim)
		if err != nil {
			return nil, fmt.Errorf("%w: similarities: %w", ErrRetrievalUnavailable, err)
		}
		for id, s := range sims {
			pool[id].similarity = s
		}
	}

	candidates := make([]Candidate, 0, len(pool))
	for id, m := range pool {
		if m.doc == nil {
			log.WithFields(log.Fields{
				"document_id": id,
			}).Warn("Search hit has no case document, skipping")
			continue
		}

		confidence := BestNameMatch(aliases, m.doc.PartyNames, r.policy.EditThreshold)
		if confidence < r.policy.MinNameMatch {
			continue
		}

		similarity := clamp01(m.similarity)
		candidates = append(candidates, Candidate{
			Case: models.RetrievedCase{
				DocumentID:          id,
				SimilarityScore:     similarity,
				NameMatchConfidence: confidence,
				CompositeScore:      r.policy.NameWeight*confidence + r.policy.SimilarityWeight*similarity,
				Title:               m.doc.Title,
				Outcome:             m.doc.Outcome,
				CaseType:            m.doc.CaseType,
				FiledDate:           m.doc.FiledDate,
				SourceURL:           m.doc.SourceURL,
			},
			Document: m.doc,
		})
	}

	SortCandidates(candidates)
	if len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}
	return candidates, nil
}

// SortCandidates orders candidates by composite score, then filed date
// (newest first), then document ID
func SortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].Case, candidates[j].Case
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		if !a.FiledDate.Equal(b.FiledDate) {
			return a.FiledDate.After(b.FiledDate)
		}
		return a.DocumentID.String() < b.DocumentID.String()
	})
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

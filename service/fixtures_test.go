package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"nyaydarpan-backend/config"
	"nyaydarpan-backend/index"
	"nyaydarpan-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testDims = 32

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func yearsAgo(years float64) time.Time {
	return testNow.Add(-time.Duration(years * 365.25 * 24 * float64(time.Hour)))
}

// hashEmbedder is a deterministic bag-of-words embedder
type hashEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *hashEmbedder) Embed(_ context.Context, text string, _ index.TaskType) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	vec := make([]float32, testDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%testDims]++
	}
	vec[0] += 0.01
	return vec, nil
}

func (e *hashEmbedder) ModelVersion() string { return "hash-v1" }

// memCaseStore is an in-memory CaseStore
type memCaseStore struct {
	mu   sync.Mutex
	docs map[uuid.UUID]models.CaseDocument
	err  error
}

func newMemCaseStore(docs ...models.CaseDocument) *memCaseStore {
	s := &memCaseStore{docs: make(map[uuid.UUID]models.CaseDocument)}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *memCaseStore) FindByPartyTokens(_ context.Context, tokens []string, _ string, limit int) ([]models.CaseDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	want := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		want[t] = true
	}
	overlap := make(map[uuid.UUID]int)
	var out []models.CaseDocument
	for _, d := range s.docs {
		n := 0
		for _, t := range NameTokens(d.PartyNames) {
			if want[t] {
				n++
			}
		}
		if n > 0 {
			overlap[d.ID] = n
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if oi, oj := overlap[out[i].ID], overlap[out[j].ID]; oi != oj {
			return oi > oj
		}
		if !out[i].FiledDate.Equal(out[j].FiledDate) {
			return out[i].FiledDate.After(out[j].FiledDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memCaseStore) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.CaseDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	out := make(map[uuid.UUID]*models.CaseDocument, len(ids))
	for _, id := range ids {
		if d, ok := s.docs[id]; ok {
			doc := d
			out[id] = &doc
		}
	}
	return out, nil
}

type caseParams struct {
	title      string
	plaintiff  string
	defendant  string
	outcome    models.CaseOutcome
	caseType   models.CaseType
	filedYears float64
	text       string
}

func makeCase(c caseParams) models.CaseDocument {
	url := "https://indiankanoon.org/doc/" + strings.ReplaceAll(strings.ToLower(c.title), " ", "-")
	text := c.text
	if text == "" {
		text = c.title + " dispute over unpaid invoices and breach of supply agreement"
	}
	return models.CaseDocument{
		ID:             models.CaseIDFromURL(url),
		Title:          c.title,
		PartyNames:     []string{c.plaintiff, c.defendant},
		DefendantNames: []string{c.defendant},
		FullText:       text,
		Outcome:        c.outcome,
		CaseType:       c.caseType,
		Court:          "Delhi High Court",
		FiledDate:      yearsAgo(c.filedYears),
		SourceURL:      url,
	}
}

type corpus struct {
	store    *memCaseStore
	index    *index.Index
	embedder *hashEmbedder
}

func newCorpus(t *testing.T, docs ...models.CaseDocument) *corpus {
	t.Helper()
	embedder := &hashEmbedder{}
	ix := index.New(embedder, index.NewMemoryStore(), testDims)
	for i := range docs {
		require.NoError(t, ix.Upsert(context.Background(), &docs[i]))
	}
	return &corpus{
		store:    newMemCaseStore(docs...),
		index:    ix,
		embedder: embedder,
	}
}

func (c *corpus) retriever() *CaseRetriever {
	return NewCaseRetriever(c.store, c.index, config.DefaultPolicy().Retrieval)
}

func techCorpCase() models.CaseDocument {
	return makeCase(caseParams{
		title:      "Sharma Traders vs TechCorp India Pvt Ltd",
		plaintiff:  "Sharma Traders",
		defendant:  "TechCorp India Pvt Ltd",
		outcome:    models.OutcomePlaintiffWon,
		caseType:   models.CaseTypeContractDispute,
		filedYears: 1,
	})
}

func unrelatedCases() []models.CaseDocument {
	return []models.CaseDocument{
		makeCase(caseParams{
			title:      "Globex Ltd vs Initech Solutions",
			plaintiff:  "Globex Ltd",
			defendant:  "Initech Solutions",
			outcome:    models.OutcomeSettled,
			caseType:   models.CaseTypeCivil,
			filedYears: 3,
		}),
		makeCase(caseParams{
			title:      "State vs Acme Logistics",
			plaintiff:  "State",
			defendant:  "Acme Logistics",
			outcome:    models.OutcomeDismissed,
			caseType:   models.CaseTypeCriminal,
			filedYears: 5,
		}),
	}
}

var errBackendDown = errors.New("backend down")

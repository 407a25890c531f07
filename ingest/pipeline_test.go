package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"nyaydarpan-backend/index"
	"nyaydarpan-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCases struct {
	mu     sync.Mutex
	docs   map[uuid.UUID]models.CaseDocument
	tokens map[uuid.UUID][]string
	index  *fakeIndex
	err    error
}

func newFakeCases(idx *fakeIndex) *fakeCases {
	return &fakeCases{
		docs:   make(map[uuid.UUID]models.CaseDocument),
		tokens: make(map[uuid.UUID][]string),
		index:  idx,
	}
}

func (f *fakeCases) Insert(_ context.Context, doc *models.CaseDocument, tokens []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.docs[doc.ID]; ok {
		return false, nil
	}
	f.docs[doc.ID] = *doc
	f.tokens[doc.ID] = tokens
	return true, nil
}

func (f *fakeCases) ListStale(_ context.Context, modelVersion string, limit int) ([]models.CaseDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.CaseDocument
	for id, d := range f.docs {
		if f.index.versionOf(id) != modelVersion {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeIndex fails the first failures[title] upserts of a document
type fakeIndex struct {
	mu       sync.Mutex
	version  string
	versions map[uuid.UUID]string
	failures map[string]int
	fatal    map[string]bool
	calls    int
}

func newFakeIndex(version string) *fakeIndex {
	return &fakeIndex{
		version:  version,
		versions: make(map[uuid.UUID]string),
		failures: make(map[string]int),
		fatal:    make(map[string]bool),
	}
}

func (f *fakeIndex) Upsert(_ context.Context, doc *models.CaseDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fatal[doc.Title] {
		return fmt.Errorf("%w: got 3 want 32", index.ErrDimensionMismatch)
	}
	if f.failures[doc.Title] > 0 {
		f.failures[doc.Title]--
		return fmt.Errorf("%w: quota exceeded", index.ErrEmbeddingUnavailable)
	}
	f.versions[doc.ID] = f.version
	return nil
}

func (f *fakeIndex) ModelVersion() string { return f.version }

func (f *fakeIndex) versionOf(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versions[id]
}

type fakeReviews struct {
	seen map[uuid.UUID]string
}

func (f *fakeReviews) Insert(_ context.Context, r *models.CompanyReview, normalized string) (bool, error) {
	if _, ok := f.seen[r.ID]; ok {
		return false, nil
	}
	f.seen[r.ID] = normalized
	return true, nil
}

func feedDocs(t *testing.T) []models.CaseDocument {
	t.Helper()
	docs, _, err := ParseFeed(strings.NewReader(sampleFeed), ingestNow)
	require.NoError(t, err)
	return docs
}

func TestPipelineRun(t *testing.T) {
	idx := newFakeIndex("m1")
	cases := newFakeCases(idx)
	docs := feedDocs(t)
	idx.failures[docs[1].Title] = 2

	p := NewPipeline(cases, idx, PipelineWithRetry(3, time.Millisecond))
	report, err := p.Run(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 3, report.Indexed)
	assert.Empty(t, report.Failures)

	tc := docs[0]
	assert.Contains(t, cases.tokens[tc.ID], "techcorp")
	assert.Contains(t, cases.tokens[tc.ID], "techcorpindia")

	// a second run over the same feed writes nothing
	report, err = p.Run(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 3, report.Duplicates)
	assert.Equal(t, 0, report.Indexed)
}

func TestPipelineRunReportsFailures(t *testing.T) {
	idx := newFakeIndex("m1")
	cases := newFakeCases(idx)
	docs := feedDocs(t)
	idx.failures[docs[0].Title] = 10
	idx.fatal[docs[2].Title] = true

	p := NewPipeline(cases, idx, PipelineWithRetry(2, time.Millisecond))
	report, err := p.Run(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 1, report.Indexed)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "index", report.Failures[0].Stage)
	assert.Contains(t, report.Failures[0].Error, "after 2 retries")
	assert.Contains(t, report.Failures[1].Error, "dimension")

	// 3 attempts for the flaky document, 1 each for the others
	assert.Equal(t, 5, idx.calls)
}

func TestPipelineRunStoreFailure(t *testing.T) {
	idx := newFakeIndex("m1")
	cases := newFakeCases(idx)
	cases.err = errors.New("connection reset")

	report, err := NewPipeline(cases, idx).Run(context.Background(), feedDocs(t))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inserted)
	require.Len(t, report.Failures, 3)
	assert.Equal(t, "store", report.Failures[0].Stage)
	assert.Equal(t, 0, idx.calls)
}

func TestPipelineRunCancelled(t *testing.T) {
	idx := newFakeIndex("m1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(newFakeCases(idx), idx).Run(ctx, feedDocs(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReindexAfterModelChange(t *testing.T) {
	old := newFakeIndex("m1")
	cases := newFakeCases(old)
	_, err := NewPipeline(cases, old, PipelineWithRetry(0, time.Millisecond)).Run(context.Background(), feedDocs(t))
	require.NoError(t, err)

	next := newFakeIndex("m2")
	cases.index = next
	docs := feedDocs(t)
	next.fatal[docs[1].Title] = true

	p := NewPipeline(cases, next, PipelineWithRetry(0, time.Millisecond), PipelineWithBatchSize(2))
	report, err := p.Reindex(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Indexed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, docs[1].Title, report.Failures[0].Title)

	// nothing left but the failing document
	stale, err := cases.ListStale(context.Background(), "m2", 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, docs[1].ID, stale[0].ID)
}

func TestLoadReviews(t *testing.T) {
	reviews := []models.CompanyReview{
		{ID: uuid.New(), CompanyName: "TechCorp India Pvt. Ltd.", Title: "ok"},
		{ID: uuid.New(), CompanyName: "Globex Ltd", Title: "fine"},
	}
	store := &fakeReviews{seen: make(map[uuid.UUID]string)}
	p := NewPipeline(nil, nil, PipelineWithReviews(store))

	report, err := p.LoadReviews(context.Background(), append(reviews, reviews[0]))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, "techcorp india", store.seen[reviews[0].ID])

	_, err = NewPipeline(nil, nil).LoadReviews(context.Background(), reviews)
	assert.Error(t, err)
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nyaydarpan-backend/index"
	"nyaydarpan-backend/models"
	"nyaydarpan-backend/service"

	"github.com/apex/log"
)

// ErrBadRecord marks a feed record that cannot become a document
var ErrBadRecord = fmt.Errorf("%w: bad feed record", service.ErrPartialDataCorruption)

// CaseWriter is the write side of the case corpus
type CaseWriter interface {
	Insert(ctx context.Context, doc *models.CaseDocument, partyTokens []string) (bool, error)
	ListStale(ctx context.Context, modelVersion string, limit int) ([]models.CaseDocument, error)
}

// DocumentIndex embeds and stores case documents
type DocumentIndex interface {
	Upsert(ctx context.Context, doc *models.CaseDocument) error
	ModelVersion() string
}

// ReviewWriter stores company reviews
type ReviewWriter interface {
	Insert(ctx context.Context, review *models.CompanyReview, normalizedCompany string) (bool, error)
}

// Failure describes one document that could not be stored or indexed
type Failure struct {
	Title string `json:"title"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Report summarizes one pipeline run
type Report struct {
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Indexed    int       `json:"indexed"`
	Failures   []Failure `json:"failures,omitempty"`
}

// Pipeline loads parsed feeds into the corpus and keeps the index current
type Pipeline struct {
	cases      CaseWriter
	index      DocumentIndex
	reviews    ReviewWriter
	maxRetries int
	backoff    time.Duration
	batchSize  int
}

// PipelineOption is a functional option for Pipeline
type PipelineOption func(*Pipeline)

// PipelineWithReviews sets the review store used by LoadReviews
func PipelineWithReviews(w ReviewWriter) PipelineOption {
	return func(p *Pipeline) {
		p.reviews = w
	}
}

// PipelineWithRetry sets how often an embedding is retried and the initial backoff
func PipelineWithRetry(maxRetries int, initialBackoff time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.maxRetries = maxRetries
		p.backoff = initialBackoff
	}
}

// PipelineWithBatchSize sets how many stale documents Reindex loads at a time
func PipelineWithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		p.batchSize = n
	}
}

// NewPipeline creates a pipeline writing to cases and idx
func NewPipeline(cases CaseWriter, idx DocumentIndex, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cases:      cases,
		index:      idx,
		maxRetries: 3,
		backoff:    time.Second,
		batchSize:  100,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run stores docs and indexes the new ones. Per-document failures are
// reported and do not stop the run; a cancelled context does.
func (p *Pipeline) Run(ctx context.Context, docs []models.CaseDocument) (*Report, error) {
	report := &Report{}
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		doc := &docs[i]

		inserted, err := p.cases.Insert(ctx, doc, service.NameTokens(doc.PartyNames))
		if err != nil {
			report.fail(doc, "store", err)
			continue
		}
		if !inserted {
			report.Duplicates++
			continue
		}
		report.Inserted++

		if err := p.upsertWithRetry(ctx, doc); err != nil {
			report.fail(doc, "index", err)
			continue
		}
		report.Indexed++
	}

	log.WithFields(log.Fields{
		"inserted":   report.Inserted,
		"duplicates": report.Duplicates,
		"indexed":    report.Indexed,
		"failed":     len(report.Failures),
	}).Info("Corpus ingest complete")
	return report, nil
}

// Reindex embeds every document whose vector is missing or was produced by
// another model version. It stops when a batch makes no progress.
func (p *Pipeline) Reindex(ctx context.Context) (*Report, error) {
	report := &Report{}
	failed := make(map[string]bool)
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		stale, err := p.cases.ListStale(ctx, p.index.ModelVersion(), p.batchSize)
		if err != nil {
			return report, fmt.Errorf("list stale documents: %w", err)
		}

		progress := 0
		for i := range stale {
			doc := &stale[i]
			if failed[doc.ID.String()] {
				continue
			}
			if err := p.upsertWithRetry(ctx, doc); err != nil {
				failed[doc.ID.String()] = true
				report.fail(doc, "index", err)
				continue
			}
			report.Indexed++
			progress++
		}
		if progress == 0 {
			break
		}
	}

	log.WithFields(log.Fields{
		"model_version": p.index.ModelVersion(),
		"indexed":       report.Indexed,
		"failed":        len(report.Failures),
	}).Info("Reindex complete")
	return report, nil
}

// LoadReviews stores reviews keyed by normalized company name
func (p *Pipeline) LoadReviews(ctx context.Context, reviews []models.CompanyReview) (*Report, error) {
	if p.reviews == nil {
		return nil, errors.New("no review store configured")
	}

	report := &Report{}
	for i := range reviews {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r := &reviews[i]

		inserted, err := p.reviews.Insert(ctx, r, service.NormalizeName(r.CompanyName))
		if err != nil {
			report.Failures = append(report.Failures, Failure{
				Title: r.CompanyName + ": " + r.Title,
				Stage: "store",
				Error: err.Error(),
			})
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Duplicates++
		}
	}
	return report, nil
}

// upsertWithRetry retries embedding failures with exponential backoff.
// Other errors are returned at once.
func (p *Pipeline) upsertWithRetry(ctx context.Context, doc *models.CaseDocument) error {
	backoff := p.backoff
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			log.WithFields(log.Fields{
				"document_id": doc.ID,
				"attempt":     attempt,
				"backoff":     backoff.String(),
			}).Warn("Retrying embedding")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lastErr = p.index.Upsert(ctx, doc)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, index.ErrEmbeddingUnavailable) {
			return lastErr
		}
	}
	return fmt.Errorf("after %d retries: %w", p.maxRetries, lastErr)
}

func (r *Report) fail(doc *models.CaseDocument, stage string, err error) {
	log.WithFields(log.Fields{
		"document_id": doc.ID,
		"stage":       stage,
		"error":       err,
	}).Warn("Corpus document failed")
	r.Failures = append(r.Failures, Failure{
		Title: doc.Title,
		Stage: stage,
		Error: err.Error(),
	})
}

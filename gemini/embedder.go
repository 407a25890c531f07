package gemini

import (
	"context"
	"fmt"

	"nyaydarpan-backend/index"
	"nyaydarpan-backend/metrics"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
)

type embedFunc func(ctx context.Context, text string, task index.TaskType) ([]float32, error)

// Embedder produces case and query embeddings with a Gemini embedding model
type Embedder struct {
	modelName string
	call      embedFunc
	retry     RetryPolicy
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
}

// EmbedderOption is a functional option for Embedder
type EmbedderOption func(*Embedder)

// EmbedWithRetryPolicy sets the retry policy for embedding calls
func EmbedWithRetryPolicy(p RetryPolicy) EmbedderOption {
	return func(e *Embedder) {
		e.retry = p
	}
}

// EmbedWithRateLimit caps embedding calls per second; non-positive disables the cap
func EmbedWithRateLimit(perSecond float64) EmbedderOption {
	return func(e *Embedder) {
		if perSecond <= 0 {
			e.limiter = nil
			return
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// EmbedWithMetrics sets the metrics sink
func EmbedWithMetrics(m *metrics.Metrics) EmbedderOption {
	return func(e *Embedder) {
		e.metrics = m
	}
}

// NewEmbedder creates an embedder backed by the named Gemini embedding model
func NewEmbedder(client *genai.Client, modelName string, opts ...EmbedderOption) *Embedder {
	docModel := client.EmbeddingModel(modelName)
	docModel.TaskType = genai.TaskTypeRetrievalDocument
	queryModel := client.EmbeddingModel(modelName)
	queryModel.TaskType = genai.TaskTypeRetrievalQuery

	call := func(ctx context.Context, text string, task index.TaskType) ([]float32, error) {
		model := docModel
		if task == index.TaskQuery {
			model = queryModel
		}
		res, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding", ErrMalformedResponse)
		}
		return res.Embedding.Values, nil
	}

	return newEmbedder(modelName, call, opts...)
}

func newEmbedder(modelName string, call embedFunc, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		modelName: modelName,
		call:      call,
		retry:     DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ModelVersion identifies the embedding model; vectors from other versions are stale
func (e *Embedder) ModelVersion() string {
	return e.modelName
}

// Embed returns the embedding of text. Failures wrap index.ErrEmbeddingUnavailable.
func (e *Embedder) Embed(ctx context.Context, text string, task index.TaskType) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", index.ErrEmbeddingUnavailable, err)
		}
	}

	vec, err := withRetry(ctx, e.retry, e.metrics, "embedding", func(ctx context.Context) ([]float32, error) {
		return e.call(ctx, text, task)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", index.ErrEmbeddingUnavailable, err)
	}
	return vec, nil
}

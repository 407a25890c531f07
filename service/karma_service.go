package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"nyaydarpan-backend/cache"
	"nyaydarpan-backend/metrics"
	"nyaydarpan-backend/models"

	"github.com/apex/log"
)

// Retriever finds candidate cases for a query
type Retriever interface {
	Retrieve(ctx context.Context, q models.RetrievalQuery) ([]Candidate, error)
}

// KarmaService runs Karma Checks with caching and a degraded fallback
type KarmaService struct {
	retriever    Retriever
	scorer       *RiskScorer
	cache        *cache.TTL[string, *models.KarmaScore]
	deadline     time.Duration
	defaultLimit int
	maxLimit     int
	metrics      *metrics.Metrics
	now          func() time.Time
}

// KarmaServiceOption is a functional option for KarmaService
type KarmaServiceOption func(*KarmaService)

// KarmaWithRetriever sets the case retriever
func KarmaWithRetriever(r Retriever) KarmaServiceOption {
	return func(s *KarmaService) {
		s.retriever = r
	}
}

// KarmaWithScorer sets the risk scorer
func KarmaWithScorer(scorer *RiskScorer) KarmaServiceOption {
	return func(s *KarmaService) {
		s.scorer = scorer
	}
}

// KarmaWithCache sets the score cache
func KarmaWithCache(c *cache.TTL[string, *models.KarmaScore]) KarmaServiceOption {
	return func(s *KarmaService) {
		s.cache = c
	}
}

// KarmaWithDeadline bounds a single uncached check
func KarmaWithDeadline(d time.Duration) KarmaServiceOption {
	return func(s *KarmaService) {
		s.deadline = d
	}
}

// KarmaWithLimits sets the default and maximum number of cases per check
func KarmaWithLimits(defaultLimit, maxLimit int) KarmaServiceOption {
	return func(s *KarmaService) {
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
	}
}

// KarmaWithMetrics sets the metrics sink
func KarmaWithMetrics(m *metrics.Metrics) KarmaServiceOption {
	return func(s *KarmaService) {
		s.metrics = m
	}
}

// KarmaWithClock sets the clock used for timestamps
func KarmaWithClock(now func() time.Time) KarmaServiceOption {
	return func(s *KarmaService) {
		s.now = now
	}
}

// NewKarmaService creates a new Karma Check service
func NewKarmaService(opts ...KarmaServiceOption) *KarmaService {
	s := &KarmaService{
		deadline:     20 * time.Second,
		defaultLimit: 10,
		maxLimit:     50,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewTTL[string, *models.KarmaScore](24*time.Hour, s.now)
	}
	return s
}

// DefaultLimit is the number of cases used when a caller does not choose one
func (s *KarmaService) DefaultLimit() int {
	return s.defaultLimit
}

// CheckCounterparty returns the KarmaScore for name. It only fails for invalid
// input; retrieval failures and deadline expiry produce a degraded score.
func (s *KarmaService) CheckCounterparty(ctx context.Context, name, freeText string, limit int) (*models.KarmaScore, error) {
	start := time.Now()
	name = strings.TrimSpace(name)

	normalized := NormalizeName(name)
	if normalized == "" {
		s.metrics.ObserveKarmaCheck("invalid", time.Since(start))
		return nil, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	if limit <= 0 || limit > s.maxLimit {
		s.metrics.ObserveKarmaCheck("invalid", time.Since(start))
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, s.maxLimit)
	}

	key := cacheKey(normalized, limit, freeText)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.CacheLookup(true)
		s.metrics.ObserveKarmaCheck("cached", time.Since(start))
		return forCaller(cached, name), nil
	}
	s.metrics.CacheLookup(false)

	type result struct {
		score *models.KarmaScore
		err   error
	}
	done := make(chan result, 1)
	query := BuildQuery(name, freeText, limit)

	// The work keeps running if we stop waiting for it; a late success still
	// warms the cache for the next caller.
	workCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("karma pipeline panic: %v", r)}
			}
		}()

		candidates, err := s.retriever.Retrieve(workCtx, query)
		if err != nil {
			done <- result{err: err}
			return
		}
		score := s.scorer.Score(name, query.NormalizedAliases, candidates)
		s.cache.Set(key, score)
		done <- result{score: score}
	}()

	timer := time.NewTimer(s.deadline)
	defer timer.Stop()

	var reason string
	select {
	case res := <-done:
		if res.err == nil {
			s.metrics.ObserveKarmaCheck("scored", time.Since(start))
			return forCaller(res.score, name), nil
		}
		reason = "case retrieval failed"
		log.WithFields(log.Fields{
			"counterparty": normalized,
			"error":        res.err,
		}).Warn("Karma Check degraded")
	case <-timer.C:
		reason = "the check did not finish in time"
		log.WithFields(log.Fields{
			"counterparty": normalized,
			"deadline":     s.deadline.String(),
		}).Warn("Karma Check deadline exceeded")
	case <-ctx.Done():
		reason = "the request was cancelled"
	}

	s.metrics.ObserveKarmaCheck("degraded", time.Since(start))
	return s.degraded(name, reason), nil
}

func (s *KarmaService) degraded(name, reason string) *models.KarmaScore {
	return &models.KarmaScore{
		CounterpartyName: name,
		RiskLevel:        models.RiskUnknown,
		NumericScore:     0,
		CasesConsidered:  []models.RetrievedCase{},
		SummaryText: fmt.Sprintf(
			"Karma Check for %s is temporarily unavailable (%s); litigation risk could not be assessed.",
			name, reason),
		Recommendations: Recommendations(models.RiskUnknown),
		Degraded:        true,
		GeneratedAt:     s.now(),
	}
}

func cacheKey(normalized string, limit int, freeText string) string {
	return normalized + "|" + strconv.Itoa(limit) + "|" + Fingerprint(strings.TrimSpace(freeText))
}

// forCaller copies a shared score for a caller who asked about name. Slices
// are cloned and the summary headline names the caller's spelling.
func forCaller(score *models.KarmaScore, name string) *models.KarmaScore {
	out := *score
	out.CasesConsidered = slices.Clone(score.CasesConsidered)
	out.Recommendations = slices.Clone(score.Recommendations)
	if name == score.CounterpartyName {
		return &out
	}

	cases := len(score.CasesConsidered)
	old := summaryHeadline(score.CounterpartyName, score.RiskLevel, score.NumericScore, cases)
	if rest, ok := strings.CutPrefix(score.SummaryText, old); ok {
		out.SummaryText = summaryHeadline(name, score.RiskLevel, score.NumericScore, cases) + rest
	}
	out.CounterpartyName = name
	return &out
}

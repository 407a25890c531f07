package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"nyaydarpan-backend/gemini"
	"nyaydarpan-backend/models"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"
)

const (
	summaryFindings   = 5
	maxContractRunes  = 200000
	clauseSaturation  = 6.0
	clauseRiskWeight  = 0.7
	karmaRiskWeight   = 0.3
	communityReviews  = 50
	noCounterpartyMsg = "no counterparty supplied"
)

var severityWeights = map[models.Severity]float64{
	models.SeverityCritical: 4,
	models.SeverityHigh:     3,
	models.SeverityMedium:   2,
	models.SeverityLow:      1,
}

// ClauseAnalyzer produces raw clause-level findings for contract text
type ClauseAnalyzer interface {
	AnalyzeClauses(ctx context.Context, contractText string) ([]models.RawFinding, error)
}

// KarmaChecker scores a counterparty's litigation history
type KarmaChecker interface {
	CheckCounterparty(ctx context.Context, name, freeText string, limit int) (*models.KarmaScore, error)
	DefaultLimit() int
}

// CommunityProvider summarizes public reviews of a company
type CommunityProvider interface {
	Insights(ctx context.Context, name string, limit int) (*models.CommunityInsights, error)
}

// AnalysisRequest is a contract submitted for analysis
type AnalysisRequest struct {
	ContractText     string
	AnalysisType     models.AnalysisType
	CounterpartyName string
}

// AnalysisService merges clause analysis, the Karma Check and community
// insights into one report
type AnalysisService struct {
	analyzer   ClauseAnalyzer
	normalizer *FindingNormalizer
	karma      KarmaChecker
	community  CommunityProvider
	now        func() time.Time
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithClauseAnalyzer sets the clause analysis collaborator
func AnalysisWithClauseAnalyzer(a ClauseAnalyzer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.analyzer = a
	}
}

// AnalysisWithNormalizer sets the finding normalizer
func AnalysisWithNormalizer(n *FindingNormalizer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.normalizer = n
	}
}

// AnalysisWithKarmaChecker sets the Karma Check service
func AnalysisWithKarmaChecker(k KarmaChecker) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.karma = k
	}
}

// AnalysisWithCommunity sets the community insights provider
func AnalysisWithCommunity(c CommunityProvider) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.community = c
	}
}

// AnalysisWithClock sets the clock used for timestamps
func AnalysisWithClock(now func() time.Time) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.now = now
	}
}

// NewAnalysisService creates a new contract analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = NewFindingNormalizer(nil)
	}
	return s
}

// Analyze produces a report for req. Only invalid input and a cancelled ctx
// are errors; each signal that cannot be produced is replaced by a notice.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisReport, error) {
	text := strings.TrimSpace(req.ContractText)
	if text == "" {
		return nil, fmt.Errorf("%w: contract_text is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > maxContractRunes {
		return nil, fmt.Errorf("%w: contract_text exceeds %d characters", ErrInvalidInput, maxContractRunes)
	}
	analysisType := req.AnalysisType
	if analysisType == "" {
		analysisType = models.AnalysisFull
	}
	if analysisType != models.AnalysisFull && analysisType != models.AnalysisSummary {
		return nil, fmt.Errorf("%w: analysis_type must be full or summary", ErrInvalidInput)
	}
	counterparty := strings.TrimSpace(req.CounterpartyName)
	fingerprint := Fingerprint(text)

	var (
		findings      []models.ContractFinding
		karma         *models.KarmaScore
		insights      *models.CommunityInsights
		clauseNotice  string
		karmaNotice   string
		communityNote string
	)

	// A failed signal becomes a notice; only a cancelled caller stops the group.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		findings, clauseNotice = s.clauseFindings(gctx, text, fingerprint)
		return ctx.Err()
	})
	g.Go(func() error {
		karma, karmaNotice = s.karmaScore(gctx, counterparty)
		return ctx.Err()
	})
	g.Go(func() error {
		insights, communityNote = s.communityInsights(gctx, counterparty)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		log.WithFields(log.Fields{
			"fingerprint": fingerprint,
			"error":       err,
		}).Warn("Contract analysis abandoned")
		return nil, fmt.Errorf("contract analysis abandoned: %w", err)
	}

	var notices []string
	for _, n := range []string{clauseNotice, karmaNotice, communityNote} {
		if n != "" {
			notices = append(notices, n)
		}
	}

	clauseRisk := ClauseRisk(findings)
	overall := clauseRisk
	if karma != nil && !karma.Degraded && karma.RiskLevel != models.RiskUnknown {
		overall = clauseRiskWeight*clauseRisk + karmaRiskWeight*float64(karma.NumericScore)
	}

	if analysisType == models.AnalysisSummary && len(findings) > summaryFindings {
		findings = findings[:summaryFindings]
	}

	report := &models.AnalysisReport{
		OverallRiskScore:    int(math.Round(overall)),
		AnalysisType:        analysisType,
		Findings:            findings,
		Karma:               karma,
		CommunityInsights:   insights,
		Notices:             notices,
		ContractFingerprint: fingerprint,
		GeneratedAt:         s.now(),
	}

	log.WithFields(log.Fields{
		"fingerprint": fingerprint,
		"findings":    len(findings),
		"overall":     report.OverallRiskScore,
		"notices":     len(notices),
	}).Info("Contract analysis complete")

	return report, nil
}

func (s *AnalysisService) clauseFindings(ctx context.Context, text, fingerprint string) ([]models.ContractFinding, string) {
	if s.analyzer == nil {
		return []models.ContractFinding{}, "Clause analysis is not configured."
	}

	raw, err := s.analyzer.AnalyzeClauses(ctx, text)
	if err != nil {
		log.WithFields(log.Fields{
			"fingerprint": fingerprint,
			"error":       err,
		}).Warn("Clause analysis failed")
		if errors.Is(err, gemini.ErrCollaboratorTimeout) {
			return []models.ContractFinding{}, "Clause analysis timed out; findings are unavailable."
		}
		return []models.ContractFinding{}, "Clause analysis is temporarily unavailable; findings are unavailable."
	}
	return s.normalizer.Normalize(raw), ""
}

func (s *AnalysisService) karmaScore(ctx context.Context, counterparty string) (*models.KarmaScore, string) {
	if counterparty == "" || s.karma == nil {
		return &models.KarmaScore{
			RiskLevel:       models.RiskUnknown,
			CasesConsidered: []models.RetrievedCase{},
			SummaryText:     "Karma Check skipped: " + noCounterpartyMsg + ".",
			GeneratedAt:     s.now(),
		}, "Karma Check skipped: " + noCounterpartyMsg + "."
	}

	score, err := s.karma.CheckCounterparty(ctx, counterparty, "", s.karma.DefaultLimit())
	if err != nil {
		// only invalid input reaches here, e.g. a name made of punctuation
		return &models.KarmaScore{
			CounterpartyName: counterparty,
			RiskLevel:        models.RiskUnknown,
			CasesConsidered:  []models.RetrievedCase{},
			SummaryText:      "Karma Check skipped: the counterparty name is not usable.",
			GeneratedAt:      s.now(),
		}, "Karma Check skipped: the counterparty name is not usable."
	}
	if score.Degraded {
		return score, "Karma Check is temporarily unavailable; the overall score uses clause analysis only."
	}
	return score, ""
}

func (s *AnalysisService) communityInsights(ctx context.Context, counterparty string) (*models.CommunityInsights, string) {
	if counterparty == "" || s.community == nil {
		return nil, ""
	}

	insights, err := s.community.Insights(ctx, counterparty, communityReviews)
	if err != nil {
		log.WithFields(log.Fields{
			"counterparty": NormalizeName(counterparty),
			"error":        err,
		}).Warn("Community insights failed")
		return nil, "Community insights are temporarily unavailable."
	}
	return insights, ""
}

// ClauseRisk maps findings onto [0,100] with diminishing returns per finding
func ClauseRisk(findings []models.ContractFinding) float64 {
	sum := 0.0
	for _, f := range findings {
		sum += severityWeights[f.Severity]
	}
	return 100 * (1 - math.Exp(-sum/clauseSaturation))
}

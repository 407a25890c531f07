package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"nyaydarpan-backend/config"
	"nyaydarpan-backend/metrics"
	"nyaydarpan-backend/models"

	"github.com/apex/log"
)

// partyRole is the counterparty's side in a case
type partyRole int

const (
	roleUnknown partyRole = iota
	rolePlaintiff
	roleDefendant
)

func (r partyRole) String() string {
	switch r {
	case rolePlaintiff:
		return "plaintiff"
	case roleDefendant:
		return "defendant"
	}
	return "unknown"
}

// recommendations per risk tier
var tierRecommendations = map[models.RiskLevel][]string{
	models.RiskHigh: {
		"Conduct thorough due diligence on the counterparty before signing",
		"Include strong termination and exit clauses",
		"Require performance guarantees or a security deposit",
		"Have the contract reviewed by a legal expert",
		"Monitor the counterparty's compliance closely during the engagement",
	},
	models.RiskMedium: {
		"Review the contract terms carefully before signing",
		"Prefer a shorter initial contract duration",
		"Include a clear dispute resolution mechanism",
		"Ask for regular performance reports",
		"Keep thorough documentation of all communications",
	},
	models.RiskLow: {
		"Standard contract terms should be sufficient",
		"Maintain regular communication with the counterparty",
		"Keep proper records of the engagement",
	},
	models.RiskUnknown: {
		"Verify the counterparty's litigation history manually before signing",
	},
}

// Recommendations returns the advice list for a risk tier
func Recommendations(level models.RiskLevel) []string {
	recs := tierRecommendations[level]
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

// RiskScorer turns retrieved cases into a bounded, explainable KarmaScore
type RiskScorer struct {
	policy  config.ScoringPolicy
	now     func() time.Time
	metrics *metrics.Metrics
}

// ScorerOption is a functional option for RiskScorer
type ScorerOption func(*RiskScorer)

// ScorerWithClock sets the clock used for recency and timestamps
func ScorerWithClock(now func() time.Time) ScorerOption {
	return func(s *RiskScorer) {
		s.now = now
	}
}

// ScorerWithMetrics sets the metrics sink
func ScorerWithMetrics(m *metrics.Metrics) ScorerOption {
	return func(s *RiskScorer) {
		s.metrics = m
	}
}

// NewRiskScorer creates a scorer using policy
func NewRiskScorer(policy config.ScoringPolicy, opts ...ScorerOption) *RiskScorer {
	s := &RiskScorer{
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the active scoring policy
func (s *RiskScorer) Policy() config.ScoringPolicy {
	return s.policy
}

type weighted struct {
	rc   models.RetrievedCase
	doc  *models.CaseDocument
	role partyRole
	age  float64
}

// Score computes the KarmaScore for name from ranked candidates. Cases with
// unusable metadata are logged and left out; the rest are still scored.
func (s *RiskScorer) Score(name string, aliases []string, candidates []Candidate) *models.KarmaScore {
	now := s.now()

	var kept []weighted
	total := 0.0
	for _, c := range candidates {
		w, role, err := s.caseWeight(c, aliases, now)
		if err != nil {
			s.metrics.CaseExcluded("invalid_metadata")
			log.WithFields(log.Fields{
				"document_id": c.Case.DocumentID,
				"error":       err,
			}).Warn("Excluding case from Karma score")
			continue
		}
		rc := c.Case
		rc.CaseWeight = w
		kept = append(kept, weighted{
			rc:   rc,
			doc:  c.Document,
			role: role,
			age:  ageYears(c.Document.FiledDate, now),
		})
		total += w
	}

	numeric := 0
	if total > 0 {
		numeric = int(math.Round(100 * (1 - math.Exp(-total/s.policy.SaturationK))))
		numeric = max(0, min(100, numeric))
	}
	level := s.policy.Tier(numeric)

	cases := make([]models.RetrievedCase, len(kept))
	for i, w := range kept {
		cases[i] = w.rc
	}

	return &models.KarmaScore{
		CounterpartyName: name,
		RiskLevel:        level,
		NumericScore:     numeric,
		CasesConsidered:  cases,
		SummaryText:      s.summarize(name, level, numeric, kept),
		Recommendations:  Recommendations(level),
		GeneratedAt:      now,
	}
}

// CaseWeight returns the risk contribution of one candidate
func (s *RiskScorer) CaseWeight(c Candidate, aliases []string) (float64, error) {
	w, _, err := s.caseWeight(c, aliases, s.now())
	return w, err
}

func (s *RiskScorer) caseWeight(c Candidate, aliases []string, now time.Time) (float64, partyRole, error) {
	if err := validateCandidate(c, now); err != nil {
		return 0, roleUnknown, err
	}

	role := s.counterpartyRole(c.Document, aliases)
	w := s.outcomeWeight(c.Document.Outcome, role) *
		s.recencyWeight(ageYears(c.Document.FiledDate, now)) *
		c.Case.NameMatchConfidence *
		s.policy.CaseTypeWeight(c.Document.CaseType)
	return w, role, nil
}

func validateCandidate(c Candidate, now time.Time) error {
	doc := c.Document
	if doc == nil {
		return fmt.Errorf("%w: document %s missing", ErrInvalidCaseMetadata, c.Case.DocumentID)
	}
	if !doc.Outcome.Valid() {
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidCaseMetadata, doc.Outcome)
	}
	if !doc.CaseType.Valid() {
		return fmt.Errorf("%w: unknown case type %q", ErrInvalidCaseMetadata, doc.CaseType)
	}
	if doc.FiledDate.IsZero() {
		return fmt.Errorf("%w: missing filed date", ErrInvalidCaseMetadata)
	}
	if doc.FiledDate.After(now) {
		return fmt.Errorf("%w: filed date %s is in the future", ErrInvalidCaseMetadata, doc.FiledDate.Format("2006-01-02"))
	}
	conf := c.Case.NameMatchConfidence
	if math.IsNaN(conf) || math.IsInf(conf, 0) || conf < 0 || conf > 1 {
		return fmt.Errorf("%w: name match confidence %v out of range", ErrInvalidCaseMetadata, conf)
	}
	return nil
}

// counterpartyRole decides which side of the case the counterparty was on.
// Without defendant names the role is unknown.
func (s *RiskScorer) counterpartyRole(doc *models.CaseDocument, aliases []string) partyRole {
	if len(doc.DefendantNames) == 0 {
		return roleUnknown
	}

	defendants := make(map[string]bool, len(doc.DefendantNames))
	for _, d := range doc.DefendantNames {
		defendants[NormalizeName(d)] = true
	}
	var others []string
	for _, p := range doc.PartyNames {
		if !defendants[NormalizeName(p)] {
			others = append(others, p)
		}
	}

	threshold := s.policy.Retrieval.EditThreshold
	asDefendant := BestNameMatch(aliases, doc.DefendantNames, threshold)
	asOther := BestNameMatch(aliases, others, threshold)
	minMatch := s.policy.Retrieval.MinNameMatch

	switch {
	case asDefendant >= minMatch && asDefendant >= asOther:
		return roleDefendant
	case asOther >= minMatch:
		return rolePlaintiff
	}
	return roleUnknown
}

func (s *RiskScorer) outcomeWeight(outcome models.CaseOutcome, role partyRole) float64 {
	ow := s.policy.Outcomes
	switch outcome {
	case models.OutcomeSettled:
		return ow.Settled
	case models.OutcomeDismissed:
		return ow.Dismissed
	case models.OutcomePlaintiffWon:
		switch role {
		case roleDefendant:
			return ow.Adverse
		case rolePlaintiff:
			return ow.NonAdverse
		}
		return ow.UnknownRole
	case models.OutcomeDefendantWon:
		switch role {
		case rolePlaintiff:
			return ow.Adverse
		case roleDefendant:
			return ow.NonAdverse
		}
		return ow.UnknownRole
	}
	return ow.Unknown
}

// recencyWeight is 1 up to FullWeightYears, then falls linearly to Floor at FloorYears
func (s *RiskScorer) recencyWeight(age float64) float64 {
	r := s.policy.Recency
	switch {
	case age <= r.FullWeightYears:
		return 1
	case age >= r.FloorYears:
		return r.Floor
	}
	frac := (age - r.FullWeightYears) / (r.FloorYears - r.FullWeightYears)
	return math.Max(r.Floor, 1-(1-r.Floor)*frac)
}

func ageYears(filed, now time.Time) float64 {
	return now.Sub(filed).Hours() / 24 / 365.25
}

func (s *RiskScorer) summarize(name string, level models.RiskLevel, numeric int, kept []weighted) string {
	if len(kept) == 0 {
		return summaryHeadline(name, level, numeric, 0)
	}

	top := make([]weighted, len(kept))
	copy(top, kept)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].rc.CaseWeight > top[j].rc.CaseWeight
	})
	if len(top) > s.policy.SummaryCases {
		top = top[:s.policy.SummaryCases]
	}

	var b strings.Builder
	b.WriteString(summaryHeadline(name, level, numeric, len(kept)))
	b.WriteString(" Most significant: ")
	for i, w := range top {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s (%s, %s, filed %s, %s, as %s)",
			w.rc.Title,
			outcomePhrase(w.doc.Outcome),
			strings.ReplaceAll(string(w.doc.CaseType), "_", " "),
			w.doc.FiledDate.Format("Jan 2006"),
			agePhrase(w.age),
			w.role,
		)
	}
	b.WriteString(".")
	return b.String()
}

// summaryHeadline is the opening sentence of a summary, the only part that
// names the counterparty
func summaryHeadline(name string, level models.RiskLevel, numeric, cases int) string {
	if cases == 0 {
		return fmt.Sprintf("No adverse history found for %s.", name)
	}
	noun := "cases"
	if cases == 1 {
		noun = "case"
	}
	return fmt.Sprintf("Found %d relevant %s involving %s (risk %s, score %d).", cases, noun, name, level, numeric)
}

func outcomePhrase(o models.CaseOutcome) string {
	switch o {
	case models.OutcomePlaintiffWon:
		return "decided for the plaintiff"
	case models.OutcomeDefendantWon:
		return "decided for the defendant"
	case models.OutcomeSettled:
		return "settled"
	case models.OutcomeDismissed:
		return "dismissed"
	}
	return "outcome unknown"
}

func agePhrase(years float64) string {
	switch n := int(years); {
	case n < 1:
		return "under a year ago"
	case n == 1:
		return "1 year ago"
	default:
		return fmt.Sprintf("%d years ago", n)
	}
}

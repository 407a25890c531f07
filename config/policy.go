package config

import (
	"errors"
	"fmt"
	"os"

	"nyaydarpan-backend/models"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPolicy is returned when a scoring policy fails validation
var ErrInvalidPolicy = errors.New("invalid scoring policy")

// OutcomeWeights maps case outcomes to their contribution to risk.
// Adverse and NonAdverse apply to *_won outcomes once the counterparty's role is known.
type OutcomeWeights struct {
	Adverse     float64 `yaml:"adverse" json:"adverse"`
	NonAdverse  float64 `yaml:"non_adverse" json:"non_adverse"`
	UnknownRole float64 `yaml:"unknown_role" json:"unknown_role"`
	Settled     float64 `yaml:"settled" json:"settled"`
	Dismissed   float64 `yaml:"dismissed" json:"dismissed"`
	Unknown     float64 `yaml:"unknown" json:"unknown"`
}

// RecencyPolicy controls how case age discounts its weight
type RecencyPolicy struct {
	FullWeightYears float64 `yaml:"full_weight_years" json:"full_weight_years"`
	FloorYears      float64 `yaml:"floor_years" json:"floor_years"`
	Floor           float64 `yaml:"floor" json:"floor"`
}

// TierThresholds are the numeric score boundaries for risk tiers
type TierThresholds struct {
	Medium int `yaml:"medium" json:"medium"`
	High   int `yaml:"high" json:"high"`
}

// RetrievalPolicy controls candidate retrieval and ranking
type RetrievalPolicy struct {
	NameWeight       float64 `yaml:"name_weight" json:"name_weight"`
	SimilarityWeight float64 `yaml:"similarity_weight" json:"similarity_weight"`
	MinNameMatch     float64 `yaml:"min_name_match" json:"min_name_match"`
	EditThreshold    int     `yaml:"edit_threshold" json:"edit_threshold"`
	SemanticPoolSize int     `yaml:"semantic_pool_size" json:"semantic_pool_size"`
	NamePoolSize     int     `yaml:"name_pool_size" json:"name_pool_size"`
}

// ScoringPolicy holds every tunable constant of the Karma Check
type ScoringPolicy struct {
	Outcomes        OutcomeWeights               `yaml:"outcome_weights" json:"outcome_weights"`
	Recency         RecencyPolicy                `yaml:"recency" json:"recency"`
	CaseTypeWeights map[models.CaseType]float64 `yaml:"case_type_weights" json:"case_type_weights"`
	SaturationK     float64                      `yaml:"saturation_k" json:"saturation_k"`
	Tiers           TierThresholds               `yaml:"tiers" json:"tiers"`
	Retrieval       RetrievalPolicy              `yaml:"retrieval" json:"retrieval"`
	SummaryCases    int                          `yaml:"summary_cases" json:"summary_cases"`
}

// DefaultPolicy returns the built-in scoring policy
func DefaultPolicy() ScoringPolicy {
	return ScoringPolicy{
		Outcomes: OutcomeWeights{
			Adverse:     1.0,
			NonAdverse:  0.2,
			UnknownRole: 0.5,
			Settled:     1.0,
			Dismissed:   0.3,
			Unknown:     0.5,
		},
		Recency: RecencyPolicy{
			FullWeightYears: 2,
			FloorYears:      10,
			Floor:           0.2,
		},
		CaseTypeWeights: map[models.CaseType]float64{
			models.CaseTypeContractDispute: 1.5,
			models.CaseTypeCriminal:        1.3,
			models.CaseTypeCivil:           1.0,
			models.CaseTypeLabor:           1.0,
			models.CaseTypeOther:           0.8,
		},
		SaturationK: 3.0,
		Tiers: TierThresholds{
			Medium: 34,
			High:   67,
		},
		Retrieval: RetrievalPolicy{
			NameWeight:       0.6,
			SimilarityWeight: 0.4,
			MinNameMatch:     0.4,
			EditThreshold:    1,
			SemanticPoolSize: 50,
			NamePoolSize:     200,
		},
		SummaryCases: 3,
	}
}

// LoadPolicy reads a YAML policy file over the defaults.
// An empty path returns DefaultPolicy.
func LoadPolicy(path string) (ScoringPolicy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ScoringPolicy{}, fmt.Errorf("failed to read scoring policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes YAML over the defaults and validates the result
func ParsePolicy(data []byte) (ScoringPolicy, error) {
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return ScoringPolicy{}, fmt.Errorf("failed to parse scoring policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return ScoringPolicy{}, err
	}
	return policy, nil
}

// Validate checks the policy for values the scorer cannot work with
func (p ScoringPolicy) Validate() error {
	ow := p.Outcomes
	for name, w := range map[string]float64{
		"adverse":      ow.Adverse,
		"non_adverse":  ow.NonAdverse,
		"unknown_role": ow.UnknownRole,
		"settled":      ow.Settled,
		"dismissed":    ow.Dismissed,
		"unknown":      ow.Unknown,
	} {
		if w < 0 {
			return fmt.Errorf("%w: outcome weight %s must not be negative", ErrInvalidPolicy, name)
		}
	}
	for caseType, w := range p.CaseTypeWeights {
		if !caseType.Valid() {
			return fmt.Errorf("%w: unknown case type %q", ErrInvalidPolicy, caseType)
		}
		if w < 0 {
			return fmt.Errorf("%w: case type weight %s must not be negative", ErrInvalidPolicy, caseType)
		}
	}
	if p.Recency.FullWeightYears < 0 || p.Recency.FloorYears <= p.Recency.FullWeightYears {
		return fmt.Errorf("%w: recency floor_years must exceed full_weight_years", ErrInvalidPolicy)
	}
	if p.Recency.Floor < 0 || p.Recency.Floor > 1 {
		return fmt.Errorf("%w: recency floor must be within [0,1]", ErrInvalidPolicy)
	}
	if p.SaturationK <= 0 {
		return fmt.Errorf("%w: saturation_k must be positive", ErrInvalidPolicy)
	}
	if p.Tiers.Medium <= 0 || p.Tiers.High <= p.Tiers.Medium || p.Tiers.High > 100 {
		return fmt.Errorf("%w: tiers must satisfy 0 < medium < high <= 100", ErrInvalidPolicy)
	}
	r := p.Retrieval
	if r.NameWeight < 0 || r.SimilarityWeight < 0 || r.NameWeight+r.SimilarityWeight == 0 {
		return fmt.Errorf("%w: retrieval weights must be non-negative and not both zero", ErrInvalidPolicy)
	}
	if r.MinNameMatch < 0 || r.MinNameMatch > 1 {
		return fmt.Errorf("%w: min_name_match must be within [0,1]", ErrInvalidPolicy)
	}
	if r.EditThreshold < 0 {
		return fmt.Errorf("%w: edit_threshold must not be negative", ErrInvalidPolicy)
	}
	if r.SemanticPoolSize <= 0 || r.NamePoolSize <= 0 {
		return fmt.Errorf("%w: pool sizes must be positive", ErrInvalidPolicy)
	}
	if p.SummaryCases < 1 || p.SummaryCases > 3 {
		return fmt.Errorf("%w: summary_cases must be between 1 and 3", ErrInvalidPolicy)
	}
	return nil
}

// Tier maps a numeric score to its risk level
func (p ScoringPolicy) Tier(score int) models.RiskLevel {
	switch {
	case score >= p.Tiers.High:
		return models.RiskHigh
	case score >= p.Tiers.Medium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// CaseTypeWeight returns the multiplier for a case type, 1.0 when unset
func (p ScoringPolicy) CaseTypeWeight(t models.CaseType) float64 {
	if w, ok := p.CaseTypeWeights[t]; ok {
		return w
	}
	return 1.0
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel represents a risk tier
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskUnknown RiskLevel = "unknown"
)

// RetrievalQuery describes a Karma Check lookup
type RetrievalQuery struct {
	RawName           string   `json:"raw_name"`
	NormalizedAliases []string `json:"normalized_aliases"`
	FreeTextContext   string   `json:"free_text_context,omitempty"`
	Limit             int      `json:"limit"`
}

// RetrievedCase is a ranked candidate case for one query. It is not persisted.
type RetrievedCase struct {
	DocumentID          uuid.UUID   `json:"document_id"`
	SimilarityScore     float64     `json:"similarity_score"`
	NameMatchConfidence float64     `json:"name_match_confidence"`
	CompositeScore      float64     `json:"composite_score"`
	CaseWeight          float64     `json:"case_weight"`
	Title               string      `json:"title,omitempty"`
	Outcome             CaseOutcome `json:"outcome,omitempty"`
	CaseType            CaseType    `json:"case_type,omitempty"`
	FiledDate           time.Time   `json:"filed_date"`
	SourceURL           string      `json:"source_url,omitempty"`
}

// KarmaScore is the behavioral risk assessment of a counterparty
type KarmaScore struct {
	CounterpartyName string          `json:"counterparty_name"`
	RiskLevel        RiskLevel       `json:"risk_level"`
	NumericScore     int             `json:"numeric_score"`
	CasesConsidered  []RetrievedCase `json:"cases_considered"`
	SummaryText      string          `json:"summary_text"`
	Recommendations  []string        `json:"recommendations,omitempty"`
	Degraded         bool            `json:"degraded"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

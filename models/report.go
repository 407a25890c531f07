package models

import "time"

// AnalysisType selects how much of the clause analysis is returned
type AnalysisType string

const (
	AnalysisFull    AnalysisType = "full"
	AnalysisSummary AnalysisType = "summary"
)

// AnalysisReport is the merged result of one contract analysis request.
// It is built per request and never stored on the server.
type AnalysisReport struct {
	OverallRiskScore    int                `json:"overall_risk_score"`
	AnalysisType        AnalysisType       `json:"analysis_type"`
	Findings            []ContractFinding  `json:"findings"`
	Karma               *KarmaScore        `json:"karma"`
	CommunityInsights   *CommunityInsights `json:"community_insights"`
	Notices             []string           `json:"notices,omitempty"`
	ContractFingerprint string             `json:"contract_fingerprint"`
	GeneratedAt         time.Time          `json:"generated_at"`
}

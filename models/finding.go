package models

// FindingCategory represents the kind of problem found in a contract
type FindingCategory string

const (
	CategoryUnfairClause      FindingCategory = "unfair_clause"
	CategoryContradiction     FindingCategory = "contradiction"
	CategoryMissingProtection FindingCategory = "missing_protection"
	CategoryAmbiguity         FindingCategory = "ambiguity"
)

// FindingCategories lists every category in declaration order
var FindingCategories = []FindingCategory{
	CategoryUnfairClause,
	CategoryContradiction,
	CategoryMissingProtection,
	CategoryAmbiguity,
}

// Severity represents how serious a finding is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity from least to most severe
var Severities = []Severity{
	SeverityLow,
	SeverityMedium,
	SeverityHigh,
	SeverityCritical,
}

// Rank orders severities; higher is more severe. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// RawFinding is a single finding as returned by the clause analysis collaborator.
// Only these fields are read; anything else in the payload is ignored.
type RawFinding struct {
	Category        string `json:"category"`
	Severity        string `json:"severity"`
	Description     string `json:"description"`
	ClauseReference string `json:"clause_reference,omitempty"`
	Recommendation  string `json:"recommendation,omitempty"`
}

// ContractFinding is a normalized clause-level finding
type ContractFinding struct {
	Category        FindingCategory `json:"category"`
	Severity        Severity        `json:"severity"`
	ClauseReference string          `json:"clause_reference"`
	Description     string          `json:"description"`
	Recommendation  string          `json:"recommendation"`
}

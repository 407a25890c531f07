package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseOutcome represents how a case was decided
type CaseOutcome string

const (
	OutcomePlaintiffWon CaseOutcome = "plaintiff_won"
	OutcomeDefendantWon CaseOutcome = "defendant_won"
	OutcomeSettled      CaseOutcome = "settled"
	OutcomeDismissed    CaseOutcome = "dismissed"
	OutcomeUnknown      CaseOutcome = "unknown"
)

// Valid reports whether the outcome is one of the known values
func (o CaseOutcome) Valid() bool {
	switch o {
	case OutcomePlaintiffWon, OutcomeDefendantWon, OutcomeSettled, OutcomeDismissed, OutcomeUnknown:
		return true
	}
	return false
}

// CaseType represents the legal category of a case
type CaseType string

const (
	CaseTypeCivil           CaseType = "civil"
	CaseTypeCriminal        CaseType = "criminal"
	CaseTypeLabor           CaseType = "labor"
	CaseTypeContractDispute CaseType = "contract_dispute"
	CaseTypeOther           CaseType = "other"
)

// Valid reports whether the case type is one of the known values
func (t CaseType) Valid() bool {
	switch t {
	case CaseTypeCivil, CaseTypeCriminal, CaseTypeLabor, CaseTypeContractDispute, CaseTypeOther:
		return true
	}
	return false
}

// CaseDocument represents a scraped court case in the corpus.
// Documents are immutable once ingested.
type CaseDocument struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	PartyNames     []string    `json:"party_names"`               // aliases included
	DefendantNames []string    `json:"defendant_names,omitempty"` // subset of PartyNames
	FullText       string      `json:"full_text"`
	Outcome        CaseOutcome `json:"outcome"`
	CaseType       CaseType    `json:"case_type"`
	Court          string      `json:"court,omitempty"`
	FiledDate      time.Time   `json:"filed_date"`
	SourceURL      string      `json:"source_url"`
	IngestedAt     time.Time   `json:"ingested_at,omitempty"`
}

// caseNamespace scopes UUIDv5 case identifiers
var caseNamespace = uuid.MustParse("6f1c7a52-3d0e-5b8e-9a41-2c6d0b7e4f13")

// CaseIDFromURL derives a stable document ID from the case source URL,
// so the same case scraped twice maps to the same document.
func CaseIDFromURL(sourceURL string) uuid.UUID {
	return uuid.NewSHA1(caseNamespace, []byte(sourceURL))
}

// EmbeddingVector is the current embedding of one CaseDocument
type EmbeddingVector struct {
	DocumentID   uuid.UUID `json:"document_id"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

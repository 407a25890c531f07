package ingest

import (
	"strings"

	"nyaydarpan-backend/models"
)

type outcomeRule struct {
	outcome  models.CaseOutcome
	keywords []string
}

// checked in order, first hit wins
var outcomeRules = []outcomeRule{
	{models.OutcomeSettled, []string{
		"settled between the parties", "settlement agreement", "amicably settled",
		"compromise decree", "terms of settlement", "withdrawn as settled",
	}},
	{models.OutcomePlaintiffWon, []string{
		"suit is decreed", "suit decreed", "decreed in favour of the plaintiff",
		"in favour of the plaintiff", "in favour of the petitioner", "appeal is allowed",
		"petition is allowed", "writ petition is allowed", "accused is convicted",
		"convicted under section", "award is upheld", "damages are awarded",
	}},
	{models.OutcomeDefendantWon, []string{
		"in favour of the defendant", "in favour of the respondent", "accused is acquitted",
		"acquitted of all charges", "suit is dismissed on merits", "claim is rejected",
	}},
	{models.OutcomeDismissed, []string{
		"petition is dismissed", "appeal is dismissed", "suit is dismissed",
		"dismissed for default", "dismissed as withdrawn", "dismissed in limine",
		"stands dismissed", "is dismissed",
	}},
}

type caseTypeRule struct {
	caseType models.CaseType
	keywords []string
}

var caseTypeRules = []caseTypeRule{
	{models.CaseTypeCriminal, []string{
		"criminal", "ipc", "cr.p.c", "crpc", "bail", "accused", "prosecution",
		"negotiable instruments act", "section 138",
	}},
	{models.CaseTypeLabor, []string{
		"industrial dispute", "workman", "workmen", "labour court", "labor court",
		"wages", "retrenchment", "gratuity", "provident fund",
	}},
	{models.CaseTypeContractDispute, []string{
		"breach of contract", "agreement", "contract", "arbitration", "invoice",
		"specific performance", "supply order", "purchase order",
	}},
	{models.CaseTypeCivil, []string{
		"civil", "suit", "decree", "injunction", "property", "tenancy", "recovery",
	}},
}

// InferOutcome guesses the case outcome from its text
func InferOutcome(text string) models.CaseOutcome {
	lower := strings.ToLower(text)
	for _, rule := range outcomeRules {
		for _, k := range rule.keywords {
			if strings.Contains(lower, k) {
				return rule.outcome
			}
		}
	}
	return models.OutcomeUnknown
}

// InferCaseType guesses the case type from its title and text. Prosecutions
// brought by the State are criminal whatever the text says.
func InferCaseType(title, text string) models.CaseType {
	t := strings.ToLower(strings.TrimSpace(title))
	if strings.HasPrefix(t, "state of ") || strings.HasPrefix(t, "state vs") || strings.HasPrefix(t, "state v.") {
		return models.CaseTypeCriminal
	}

	lower := t + " " + strings.ToLower(text)
	for _, rule := range caseTypeRules {
		for _, k := range rule.keywords {
			if containsWord(lower, k) {
				return rule.caseType
			}
		}
	}
	return models.CaseTypeOther
}

// containsWord reports whether k occurs in s at word boundaries
func containsWord(s, k string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], k)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(k)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

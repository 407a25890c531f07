package service

import (
	"fmt"
	"sort"
	"strings"

	"nyaydarpan-backend/metrics"
	"nyaydarpan-backend/models"

	"github.com/apex/log"
)

const (
	fallbackCategory = models.CategoryAmbiguity
	fallbackSeverity = models.SeverityMedium
)

var categorySynonyms = map[string]models.FindingCategory{
	"unfair":              models.CategoryUnfairClause,
	"unfair_clauses":      models.CategoryUnfairClause,
	"unfair_term":         models.CategoryUnfairClause,
	"unfair_terms":        models.CategoryUnfairClause,
	"one_sided":           models.CategoryUnfairClause,
	"one_sided_clause":    models.CategoryUnfairClause,
	"unbalanced":          models.CategoryUnfairClause,
	"critical_issue":      models.CategoryUnfairClause,
	"critical_issues":     models.CategoryUnfairClause,
	"contradictions":      models.CategoryContradiction,
	"contradictory":       models.CategoryContradiction,
	"conflict":            models.CategoryContradiction,
	"conflicting_terms":   models.CategoryContradiction,
	"inconsistency":       models.CategoryContradiction,
	"inconsistent":        models.CategoryContradiction,
	"missing":             models.CategoryMissingProtection,
	"missing_clause":      models.CategoryMissingProtection,
	"missing_protections": models.CategoryMissingProtection,
	"missing_clauses":     models.CategoryMissingProtection,
	"omission":            models.CategoryMissingProtection,
	"gap":                 models.CategoryMissingProtection,
	"lacking_protection":  models.CategoryMissingProtection,
	"ambiguous":           models.CategoryAmbiguity,
	"ambiguities":         models.CategoryAmbiguity,
	"vague":               models.CategoryAmbiguity,
	"vagueness":           models.CategoryAmbiguity,
	"unclear":             models.CategoryAmbiguity,
	"unclear_language":    models.CategoryAmbiguity,
	"imprecise":           models.CategoryAmbiguity,
	"undefined_terms":     models.CategoryAmbiguity,
	"ambiguous_language":  models.CategoryAmbiguity,
}

var severitySynonyms = map[string]models.Severity{
	"severe":        models.SeverityCritical,
	"crit":          models.SeverityCritical,
	"blocker":       models.SeverityCritical,
	"very_high":     models.SeverityCritical,
	"major":         models.SeverityHigh,
	"serious":       models.SeverityHigh,
	"significant":   models.SeverityHigh,
	"moderate":      models.SeverityMedium,
	"med":           models.SeverityMedium,
	"normal":        models.SeverityMedium,
	"minor":         models.SeverityLow,
	"trivial":       models.SeverityLow,
	"informational": models.SeverityLow,
	"info":          models.SeverityLow,
}

// FindingNormalizer coerces collaborator findings into the closed category
// and severity sets
type FindingNormalizer struct {
	metrics *metrics.Metrics
}

// NewFindingNormalizer creates a normalizer reporting remaps to m
func NewFindingNormalizer(m *metrics.Metrics) *FindingNormalizer {
	return &FindingNormalizer{metrics: m}
}

// Normalize converts raw findings, skipping those without a description,
// and returns them sorted by severity (most severe first, stable)
func (n *FindingNormalizer) Normalize(raw []models.RawFinding) []models.ContractFinding {
	findings := make([]models.ContractFinding, 0, len(raw))
	for i, r := range raw {
		description := strings.TrimSpace(r.Description)
		if description == "" {
			n.metrics.FindingSkipped()
			log.WithFields(log.Fields{
				"index": i,
				"error": fmt.Errorf("%w: finding has no description", ErrPartialDataCorruption),
			}).Warn("Skipping finding")
			continue
		}

		findings = append(findings, models.ContractFinding{
			Category:        n.category(r.Category),
			Severity:        n.severity(r.Severity),
			ClauseReference: strings.TrimSpace(r.ClauseReference),
			Description:     description,
			Recommendation:  strings.TrimSpace(r.Recommendation),
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() > findings[j].Severity.Rank()
	})
	return findings
}

func (n *FindingNormalizer) category(raw string) models.FindingCategory {
	key := enumKey(raw)
	for _, c := range models.FindingCategories {
		if key == string(c) {
			return c
		}
	}
	if c, ok := categorySynonyms[key]; ok {
		n.remapped("category", "synonym", raw, string(c))
		return c
	}

	names := make([]string, len(models.FindingCategories))
	for i, c := range models.FindingCategories {
		names[i] = string(c)
	}
	if i := closestEnum(key, names); i >= 0 {
		c := models.FindingCategories[i]
		n.remapped("category", "edit_distance", raw, string(c))
		return c
	}

	n.remapped("category", "fallback", raw, string(fallbackCategory))
	return fallbackCategory
}

func (n *FindingNormalizer) severity(raw string) models.Severity {
	key := enumKey(raw)
	for _, s := range models.Severities {
		if key == string(s) {
			return s
		}
	}
	if s, ok := severitySynonyms[key]; ok {
		n.remapped("severity", "synonym", raw, string(s))
		return s
	}

	names := make([]string, len(models.Severities))
	for i, s := range models.Severities {
		names[i] = string(s)
	}
	if i := closestEnum(key, names); i >= 0 {
		s := models.Severities[i]
		n.remapped("severity", "edit_distance", raw, string(s))
		return s
	}

	n.remapped("severity", "fallback", raw, string(fallbackSeverity))
	return fallbackSeverity
}

func (n *FindingNormalizer) remapped(field, method, from, to string) {
	n.metrics.FieldRemapped(field, method)
	log.WithFields(log.Fields{
		"field":  field,
		"method": method,
		"from":   from,
		"to":     to,
	}).Warn("Remapped finding field")
}

// enumKey lowercases raw and joins its words with underscores
func enumKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", " ", "_", " ", "/", " ").Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

// closestEnum returns the index of the name within edit range of key, or -1.
// A name is in range when at most a third of its runes (minimum 1) differ.
func closestEnum(key string, names []string) int {
	if key == "" {
		return -1
	}
	best, bestDist := -1, 0
	kr := []rune(key)
	for i, name := range names {
		d := levenshtein(kr, []rune(name))
		if d > max(1, len([]rune(name))/3) {
			continue
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

package service

import (
	"testing"

	"nyaydarpan-backend/metrics"
	"nyaydarpan-backend/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategory(t *testing.T) {
	n := NewFindingNormalizer(nil)

	tests := []struct {
		raw  string
		want models.FindingCategory
	}{
		{"unfair_clause", models.CategoryUnfairClause},
		{"Unfair Clause", models.CategoryUnfairClause},
		{"MISSING-PROTECTION", models.CategoryMissingProtection},
		{"one-sided", models.CategoryUnfairClause},
		{"critical_issues", models.CategoryUnfairClause},
		{"Vague", models.CategoryAmbiguity},
		{"conflicting terms", models.CategoryContradiction},
		{"missng_protection", models.CategoryMissingProtection},
		{"contradicton", models.CategoryContradiction},
		{"tax", models.CategoryAmbiguity},
		{"", models.CategoryAmbiguity},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, n.category(tt.raw))
		})
	}
}

func TestNormalizeSeverity(t *testing.T) {
	n := NewFindingNormalizer(nil)

	tests := []struct {
		raw  string
		want models.Severity
	}{
		{"high", models.SeverityHigh},
		{" CRITICAL ", models.SeverityCritical},
		{"severe", models.SeverityCritical},
		{"Minor", models.SeverityLow},
		{"moderate", models.SeverityMedium},
		{"hig", models.SeverityHigh},
		{"criticle", models.SeverityCritical},
		{"banana", models.SeverityMedium},
		{"", models.SeverityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, n.severity(tt.raw))
		})
	}
}

func TestNormalizeSkipsAndSorts(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	n := NewFindingNormalizer(m)

	raw := []models.RawFinding{
		{Category: "ambiguity", Severity: "low", Description: "Delivery window is not defined"},
		{Category: "unfair_clause", Severity: "high", Description: "  "},
		{Category: "unfair_clause", Severity: "critical", Description: " Unlimited liability ", ClauseReference: " 9.1 "},
		{Category: "contradiction", Severity: "low", Description: "Two different notice periods"},
		{Category: "gap", Severity: "major", Description: "No data protection clause", Recommendation: "Add a DPA"},
	}

	got := n.Normalize(raw)
	require.Len(t, got, 4)

	assert.Equal(t, models.ContractFinding{
		Category:        models.CategoryUnfairClause,
		Severity:        models.SeverityCritical,
		ClauseReference: "9.1",
		Description:     "Unlimited liability",
	}, got[0])
	assert.Equal(t, models.SeverityHigh, got[1].Severity)
	assert.Equal(t, models.CategoryMissingProtection, got[1].Category)
	assert.Equal(t, "Add a DPA", got[1].Recommendation)

	// equal severities keep their input order
	assert.Equal(t, "Delivery window is not defined", got[2].Description)
	assert.Equal(t, "Two different notice periods", got[3].Description)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedFindings))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemappedFields.WithLabelValues("category", "synonym")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemappedFields.WithLabelValues("severity", "synonym")))
}

func TestNormalizeEmpty(t *testing.T) {
	got := NewFindingNormalizer(nil).Normalize(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

package gemini

import (
	"context"
	"errors"
	"testing"

	"nyaydarpan-backend/index"
	"nyaydarpan-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFindingsArray(t *testing.T) {
	text := "```json\n[{\"category\":\"unfair_clause\",\"severity\":\"high\",\"description\":\"One-sided indemnity\",\"clause_reference\":\"7.2\",\"extra\":true}]\n```"

	findings, err := ParseFindings(text)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, models.RawFinding{
		Category:        "unfair_clause",
		Severity:        "high",
		Description:     "One-sided indemnity",
		ClauseReference: "7.2",
	}, findings[0])
}

func TestParseFindingsWithSurroundingProse(t *testing.T) {
	text := `Here are the findings: [{"category":"ambiguity","severity":"low","description":"Vague delivery date"}] Let me know.`

	findings, err := ParseFindings(text)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "Vague delivery date", findings[0].Description)
}

func TestParseFindingsObjectWrapper(t *testing.T) {
	findings, err := ParseFindings(`{"findings":[{"category":"contradiction","severity":"medium","description":"Two notice periods"}]}`)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "contradiction", findings[0].Category)
}

func TestParseFindingsSections(t *testing.T) {
	text := `{
		"critical_issues": ["Unlimited liability for the vendor"],
		"unfair_clauses": [{"severity":"high","description":"Termination at will by client"}],
		"missing_protections": ["No confidentiality clause"],
		"overall_assessment": "risky"
	}`

	findings, err := ParseFindings(text)
	require.NoError(t, err)
	require.Len(t, findings, 3)

	assert.Equal(t, "critical_issue", findings[0].Category)
	assert.Equal(t, "critical", findings[0].Severity)
	assert.Equal(t, "Unlimited liability for the vendor", findings[0].Description)

	assert.Equal(t, "unfair_clause", findings[1].Category)
	assert.Equal(t, "high", findings[1].Severity)

	assert.Equal(t, "missing_protection", findings[2].Category)
	assert.Equal(t, "", findings[2].Severity)
}

func TestParseFindingsMalformed(t *testing.T) {
	for _, text := range []string{"", "no json here", `{"summary":"fine"}`, `[{"category":`} {
		_, err := ParseFindings(text)
		assert.ErrorIs(t, err, ErrMalformedResponse, "input %q", text)
	}
}

func TestAnalyzeClausesRetriesMalformedOutput(t *testing.T) {
	calls := 0
	a := newClauseAnalyzer("test-model", func(ctx context.Context, prompt string) (string, error) {
		calls++
		assert.Contains(t, prompt, "Party A shall indemnify")
		if calls == 1 {
			return "not json", nil
		}
		return `[{"category":"unfair_clause","severity":"high","description":"Broad indemnity"}]`, nil
	}, AnalyzeWithRetryPolicy(fastPolicy()))

	findings, err := a.AnalyzeClauses(context.Background(), "Party A shall indemnify Party B for everything.")
	require.NoError(t, err)
	assert.Len(t, findings, 1)
	assert.Equal(t, 2, calls)
}

func TestAnalyzeClausesFailure(t *testing.T) {
	a := newClauseAnalyzer("test-model", func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("unavailable")
	}, AnalyzeWithRetryPolicy(fastPolicy()))

	_, err := a.AnalyzeClauses(context.Background(), "text")
	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
}

func TestEmbedderWrapsFailures(t *testing.T) {
	e := newEmbedder("text-embedding-004", func(ctx context.Context, text string, task index.TaskType) ([]float32, error) {
		return nil, errors.New("dial tcp: connection refused")
	}, EmbedWithRetryPolicy(fastPolicy()))

	_, err := e.Embed(context.Background(), "TechCorp", index.TaskQuery)
	assert.ErrorIs(t, err, index.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
	assert.Equal(t, "text-embedding-004", e.ModelVersion())
}

func TestEmbedderPassesTask(t *testing.T) {
	var gotTask index.TaskType = -1
	e := newEmbedder("m", func(ctx context.Context, text string, task index.TaskType) ([]float32, error) {
		gotTask = task
		return []float32{1, 2, 3}, nil
	}, EmbedWithRateLimit(1000))

	vec, err := e.Embed(context.Background(), "q", index.TaskQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, index.TaskQuery, gotTask)
}

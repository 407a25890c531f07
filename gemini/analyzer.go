package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nyaydarpan-backend/metrics"
	"nyaydarpan-backend/models"

	"github.com/apex/log"
	"github.com/google/generative-ai-go/genai"
)

type generateFunc func(ctx context.Context, prompt string) (string, error)

// ClauseAnalyzer asks a Gemini generation model for clause-level findings
type ClauseAnalyzer struct {
	modelName string
	generate  generateFunc
	retry     RetryPolicy
	metrics   *metrics.Metrics
}

// AnalyzerOption is a functional option for ClauseAnalyzer
type AnalyzerOption func(*ClauseAnalyzer)

// AnalyzeWithRetryPolicy sets the retry policy for generation calls
func AnalyzeWithRetryPolicy(p RetryPolicy) AnalyzerOption {
	return func(a *ClauseAnalyzer) {
		a.retry = p
	}
}

// AnalyzeWithMetrics sets the metrics sink
func AnalyzeWithMetrics(m *metrics.Metrics) AnalyzerOption {
	return func(a *ClauseAnalyzer) {
		a.metrics = m
	}
}

// NewClauseAnalyzer creates an analyzer backed by the named Gemini generation model
func NewClauseAnalyzer(client *genai.Client, modelName string, opts ...AnalyzerOption) *ClauseAnalyzer {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"

	generate := func(ctx context.Context, prompt string) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		return responseText(resp)
	}

	return newClauseAnalyzer(modelName, generate, opts...)
}

func newClauseAnalyzer(modelName string, generate generateFunc, opts ...AnalyzerOption) *ClauseAnalyzer {
	a := &ClauseAnalyzer{
		modelName: modelName,
		generate:  generate,
		retry:     DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeClauses returns the raw findings for contractText
func (a *ClauseAnalyzer) AnalyzeClauses(ctx context.Context, contractText string) ([]models.RawFinding, error) {
	prompt := clausePrompt(contractText)
	return withRetry(ctx, a.retry, a.metrics, "generation", func(ctx context.Context) ([]models.RawFinding, error) {
		text, err := a.generate(ctx, prompt)
		if err != nil {
			return nil, err
		}
		return ParseFindings(text)
	})
}

func clausePrompt(contractText string) string {
	var b strings.Builder
	b.WriteString("You are a contract risk reviewer for Indian commercial agreements.\n")
	b.WriteString("Review the contract below and report every problem you find.\n\n")
	b.WriteString("Return ONLY a JSON array. Each element must have these fields:\n")
	b.WriteString(`- "category": one of "unfair_clause", "contradiction", "missing_protection", "ambiguity"` + "\n")
	b.WriteString(`- "severity": one of "low", "medium", "high", "critical"` + "\n")
	b.WriteString(`- "description": what the problem is and who it harms` + "\n")
	b.WriteString(`- "clause_reference": the clause number or a short quote, empty if none` + "\n")
	b.WriteString(`- "recommendation": the change that fixes the problem` + "\n\n")
	b.WriteString("Look for one-sided liability or indemnity, unilateral termination, contradictory terms,\n")
	b.WriteString("vague payment or delivery obligations, and missing dispute resolution, confidentiality,\n")
	b.WriteString("force majeure or limitation of liability clauses.\n\n")
	b.WriteString("CONTRACT:\n")
	b.WriteString(contractText)
	return b.String()
}

// responseText concatenates the text parts of every candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}

	var b strings.Builder
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
			log.Warnf("Candidate %d finished with reason: %s", i, cand.FinishReason)
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}
	return b.String(), nil
}

// sectionCategories maps sectioned response keys onto finding categories
var sectionCategories = map[string]string{
	"unfair_clauses":      string(models.CategoryUnfairClause),
	"contradictions":      string(models.CategoryContradiction),
	"missing_protections": string(models.CategoryMissingProtection),
	"ambiguities":         string(models.CategoryAmbiguity),
	"critical_issues":     "critical_issue",
}

// ParseFindings extracts findings from model output. It accepts a bare JSON array,
// an object with a "findings" array, or an object keyed by section
// (unfair_clauses, contradictions, missing_protections, ambiguities, critical_issues).
// Code fences and surrounding prose are ignored.
func ParseFindings(text string) ([]models.RawFinding, error) {
	text = stripCodeFence(text)

	if start := strings.Index(text, "["); start >= 0 && (strings.Index(text, "{") < 0 || start < strings.Index(text, "{")) {
		end := strings.LastIndex(text, "]")
		if end > start {
			var findings []models.RawFinding
			if err := json.Unmarshal([]byte(text[start:end+1]), &findings); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
			return findings, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON found", ErrMalformedResponse)
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &sections); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if raw, ok := sections["findings"]; ok {
		var findings []models.RawFinding
		if err := json.Unmarshal(raw, &findings); err != nil {
			return nil, fmt.Errorf("%w: findings: %v", ErrMalformedResponse, err)
		}
		return findings, nil
	}

	findings := []models.RawFinding{}
	matched := false
	for _, key := range []string{"critical_issues", "unfair_clauses", "contradictions", "missing_protections", "ambiguities"} {
		raw, ok := sections[key]
		if !ok {
			continue
		}
		matched = true
		items, err := decodeSection(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, key, err)
		}
		for _, f := range items {
			if f.Category == "" {
				f.Category = sectionCategories[key]
			}
			if key == "critical_issues" && f.Severity == "" {
				f.Severity = string(models.SeverityCritical)
			}
			findings = append(findings, f)
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: no findings section", ErrMalformedResponse)
	}
	return findings, nil
}

// decodeSection accepts either finding objects or plain description strings
func decodeSection(raw json.RawMessage) ([]models.RawFinding, error) {
	var findings []models.RawFinding
	err := json.Unmarshal(raw, &findings)
	if err == nil {
		return findings, nil
	}

	var descriptions []string
	if json.Unmarshal(raw, &descriptions) != nil {
		return nil, err
	}
	findings = make([]models.RawFinding, len(descriptions))
	for i, d := range descriptions {
		findings[i] = models.RawFinding{Description: d}
	}
	return findings, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// IsTimeout reports whether err came from a collaborator timing out
func IsTimeout(err error) bool {
	return errors.Is(err, ErrCollaboratorTimeout)
}

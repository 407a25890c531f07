package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"nyaydarpan-backend/models"
)

var (
	positiveKeywords = []string{"good", "great", "excellent", "amazing", "wonderful", "fantastic"}
	negativeKeywords = []string{"bad", "terrible", "awful", "horrible", "disappointing", "poor"}
)

const maxThemes = 5

// ReviewSource lists stored reviews for a normalized company name
type ReviewSource interface {
	ListByCompany(ctx context.Context, normalizedCompany string, limit int) ([]models.CompanyReview, error)
}

// CommunityService aggregates public reviews into community insights
type CommunityService struct {
	reviews ReviewSource
}

// NewCommunityService creates a community insights service over reviews
func NewCommunityService(reviews ReviewSource) *CommunityService {
	return &CommunityService{reviews: reviews}
}

// Insights summarizes up to limit recent reviews of name
func (s *CommunityService) Insights(ctx context.Context, name string, limit int) (*models.CommunityInsights, error) {
	name = strings.TrimSpace(name)
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}

	reviews, err := s.reviews.ListByCompany(ctx, normalized, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: reviews: %w", ErrRetrievalUnavailable, err)
	}
	return Summarize(name, reviews), nil
}

// Summarize builds community insights from a set of reviews
func Summarize(name string, reviews []models.CompanyReview) *models.CommunityInsights {
	insights := &models.CommunityInsights{
		CompanyName:  name,
		TotalReviews: len(reviews),
		RiskLevel:    models.RiskUnknown,
		Themes:       models.CommonThemes{Pros: []string{}, Cons: []string{}},
		Sources:      []string{},
		Reviews:      reviews,
	}
	if len(reviews) == 0 {
		insights.Recommendation = fmt.Sprintf("No community reviews found for %s.", name)
		return insights
	}

	sum := 0.0
	sources := make(map[string]bool)
	var pros, cons []string
	for _, r := range reviews {
		sum += r.Rating
		if r.Source != "" {
			sources[r.Source] = true
		}
		pros = append(pros, r.Pros)
		cons = append(cons, r.Cons)

		switch sentiment(r) {
		case 1:
			insights.Sentiment.Positive++
		case -1:
			insights.Sentiment.Negative++
		default:
			insights.Sentiment.Neutral++
		}
	}

	avg := sum / float64(len(reviews))
	insights.AverageRating = math.Round(avg*10) / 10
	for src := range sources {
		insights.Sources = append(insights.Sources, src)
	}
	sort.Strings(insights.Sources)
	insights.Themes.Pros = topThemes(pros)
	insights.Themes.Cons = topThemes(cons)

	switch {
	case avg < 3:
		insights.RiskLevel = models.RiskHigh
		insights.Recommendation = fmt.Sprintf(
			"Community feedback about %s is largely negative; proceed with caution and seek additional references.", name)
	case avg < 4:
		insights.RiskLevel = models.RiskMedium
		insights.Recommendation = fmt.Sprintf(
			"Community feedback about %s is mixed; review the recurring concerns before committing.", name)
	default:
		insights.RiskLevel = models.RiskLow
		insights.Recommendation = fmt.Sprintf(
			"Community feedback about %s is largely positive.", name)
	}
	return insights
}

// sentiment returns 1, -1 or 0 by comparing positive and negative keyword hits
func sentiment(r models.CompanyReview) int {
	text := strings.ToLower(strings.Join([]string{r.Title, r.Content, r.Pros, r.Cons}, " "))
	words := strings.FieldsFunc(text, func(c rune) bool {
		return !(c >= 'a' && c <= 'z')
	})

	pos, neg := 0, 0
	for _, w := range words {
		for _, k := range positiveKeywords {
			if w == k {
				pos++
			}
		}
		for _, k := range negativeKeywords {
			if w == k {
				neg++
			}
		}
	}

	switch {
	case pos > neg:
		return 1
	case neg > pos:
		return -1
	}
	return 0
}

// topThemes returns the most frequent non-empty entries, ties in first-seen order
func topThemes(entries []string) []string {
	type theme struct {
		text  string
		count int
		first int
	}
	byKey := make(map[string]*theme)
	for i, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		key := strings.ToLower(e)
		if t, ok := byKey[key]; ok {
			t.count++
			continue
		}
		byKey[key] = &theme{text: e, count: 1, first: i}
	}

	themes := make([]*theme, 0, len(byKey))
	for _, t := range byKey {
		themes = append(themes, t)
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].count != themes[j].count {
			return themes[i].count > themes[j].count
		}
		return themes[i].first < themes[j].first
	})

	out := make([]string, 0, maxThemes)
	for i := 0; i < len(themes) && i < maxThemes; i++ {
		out = append(out, themes[i].text)
	}
	return out
}

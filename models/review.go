package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanyReview represents a public review of a company from a review site
type CompanyReview struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`
	Source      string    `json:"source"` // "Glassdoor", "Indeed", "AmbitionBox", "G2"
	Rating      float64   `json:"rating"` // 0-5
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Pros        string    `json:"pros,omitempty"`
	Cons        string    `json:"cons,omitempty"`
	ReviewDate  time.Time `json:"review_date"`
}

// SentimentCounts tallies reviews by detected sentiment
type SentimentCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// CommonThemes collects recurring pros and cons
type CommonThemes struct {
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

// CommunityInsights aggregates community sentiment about a company
type CommunityInsights struct {
	CompanyName    string          `json:"company_name"`
	AverageRating  float64         `json:"average_rating"`
	TotalReviews   int             `json:"total_reviews"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	Sentiment      SentimentCounts `json:"sentiment_analysis"`
	Themes         CommonThemes    `json:"common_themes"`
	Sources        []string        `json:"sources"`
	Recommendation string          `json:"recommendation"`
	Reviews        []CompanyReview `json:"reviews,omitempty"`
}

package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"nyaydarpan-backend/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

var reviewNamespace = uuid.MustParse("a3d9e0c4-1b7f-5c2a-8e61-4f0b9d2c7a58")

// ReviewRecord is one company review as written by the review scraper
type ReviewRecord struct {
	CompanyName string  `json:"company_name"`
	Source      string  `json:"source"`
	Rating      float64 `json:"rating"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Pros        string  `json:"pros"`
	Cons        string  `json:"cons"`
	Date        string  `json:"date"`
}

// ParseReviews decodes a review feed. Records without a company, with a
// rating outside 0-5 or an unreadable date are skipped. Identical reviews
// map to the same ID and are counted as duplicates.
func ParseReviews(r io.Reader) ([]models.CompanyReview, FeedStats, error) {
	var records []ReviewRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, FeedStats{}, fmt.Errorf("decode reviews: %w", err)
	}

	stats := FeedStats{Records: len(records)}
	seen := make(map[uuid.UUID]bool, len(records))
	reviews := make([]models.CompanyReview, 0, len(records))
	for i, rec := range records {
		review, err := rec.review()
		if err != nil {
			stats.Skipped++
			log.WithFields(log.Fields{
				"index": i,
				"error": err,
			}).Warn("Skipping review record")
			continue
		}
		if seen[review.ID] {
			stats.Duplicates++
			continue
		}
		seen[review.ID] = true
		reviews = append(reviews, review)
	}
	return reviews, stats, nil
}

func (rec ReviewRecord) review() (models.CompanyReview, error) {
	company := strings.TrimSpace(rec.CompanyName)
	if company == "" {
		return models.CompanyReview{}, fmt.Errorf("%w: missing company_name", ErrBadRecord)
	}
	if rec.Rating < 0 || rec.Rating > 5 {
		return models.CompanyReview{}, fmt.Errorf("%w: rating %v outside 0-5", ErrBadRecord, rec.Rating)
	}

	var date time.Time
	if strings.TrimSpace(rec.Date) != "" {
		d, ok := ParseDate(rec.Date)
		if !ok {
			return models.CompanyReview{}, fmt.Errorf("%w: bad date %q", ErrBadRecord, rec.Date)
		}
		date = d
	}

	source := strings.TrimSpace(rec.Source)
	key := strings.Join([]string{
		strings.ToLower(company), strings.ToLower(source), rec.Title, rec.Content, date.Format("2006-01-02"),
	}, "\x1f")

	return models.CompanyReview{
		ID:          uuid.NewSHA1(reviewNamespace, []byte(key)),
		CompanyName: company,
		Source:      source,
		Rating:      rec.Rating,
		Title:       strings.TrimSpace(rec.Title),
		Content:     strings.TrimSpace(rec.Content),
		Pros:        strings.TrimSpace(rec.Pros),
		Cons:        strings.TrimSpace(rec.Cons),
		ReviewDate:  date,
	}, nil
}

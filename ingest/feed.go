package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"time"

	"nyaydarpan-backend/models"

	"github.com/apex/log"
)

// FeedRecord is one case as written by the scraper. The optional fields are
// filled by richer sources and take precedence over inference.
type FeedRecord struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Court     string `json:"court"`
	Date      string `json:"date"`
	Snippet   string `json:"snippet"`
	Source    string `json:"source"`
	ScrapedAt string `json:"scraped_at"`

	FullText   string   `json:"full_text,omitempty"`
	Parties    []string `json:"parties,omitempty"`
	Defendants []string `json:"defendants,omitempty"`
	Outcome    string   `json:"outcome,omitempty"`
	CaseType   string   `json:"case_type,omitempty"`
}

// FeedStats counts what happened to the records of one feed
type FeedStats struct {
	Records    int `json:"records"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

var (
	partySeparator = regexp.MustCompile(`(?i)\s+(?:vs\.?|v/s\.?|v\.|versus)\s+`)
	titleDate      = regexp.MustCompile(`(?i)\s+on\s+(\d{1,2}\s+[a-z]+,?\s+\d{4})\s*$`)
	dateInText     = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{4}|\d{4}[-/]\d{1,2}[-/]\d{1,2}|\d{1,2}\s+[A-Za-z]+,?\s+\d{4}`)
)

var dateLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2006-1-2",
	"2006/1/2",
	"2 January 2006",
	"2 Jan 2006",
	"2 January, 2006",
	"2 Jan, 2006",
	time.RFC3339,
}

// ParseFeed decodes a scraper feed (a JSON array of FeedRecord) into case
// documents. Records are deduplicated by URL, first one wins. Records without
// a URL, a title or a usable date are skipped and counted.
func ParseFeed(r io.Reader, now time.Time) ([]models.CaseDocument, FeedStats, error) {
	var records []FeedRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, FeedStats{}, fmt.Errorf("decode feed: %w", err)
	}

	stats := FeedStats{Records: len(records)}
	seen := make(map[string]bool, len(records))
	docs := make([]models.CaseDocument, 0, len(records))
	for i, rec := range records {
		url := strings.TrimSpace(rec.URL)
		if url != "" && seen[url] {
			stats.Duplicates++
			continue
		}

		doc, err := rec.document(now)
		if err != nil {
			stats.Skipped++
			log.WithFields(log.Fields{
				"index": i,
				"url":   url,
				"error": err,
			}).Warn("Skipping feed record")
			continue
		}
		seen[url] = true
		docs = append(docs, doc)
	}
	return docs, stats, nil
}

func (rec FeedRecord) document(now time.Time) (models.CaseDocument, error) {
	url := strings.TrimSpace(rec.URL)
	if url == "" {
		return models.CaseDocument{}, fmt.Errorf("%w: missing url", ErrBadRecord)
	}
	title := strings.Join(strings.Fields(rec.Title), " ")
	if title == "" {
		return models.CaseDocument{}, fmt.Errorf("%w: missing title", ErrBadRecord)
	}

	filed, ok := ParseDate(rec.Date)
	if !ok {
		if m := titleDate.FindStringSubmatch(title); m != nil {
			filed, ok = ParseDate(m[1])
		}
	}
	if !ok {
		return models.CaseDocument{}, fmt.Errorf("%w: no usable date in %q", ErrBadRecord, rec.Date)
	}

	plaintiffs, defendants := SplitParties(title)
	parties := append(plaintiffs, defendants...)
	if len(rec.Parties) > 0 {
		parties = cleanNames(rec.Parties)
	}
	if len(rec.Defendants) > 0 {
		defendants = cleanNames(rec.Defendants)
	}
	for _, d := range defendants {
		if !slices.Contains(parties, d) {
			parties = append(parties, d)
		}
	}
	if len(parties) == 0 {
		return models.CaseDocument{}, fmt.Errorf("%w: no parties in %q", ErrBadRecord, title)
	}

	text := strings.TrimSpace(rec.FullText)
	if text == "" {
		text = strings.TrimSpace(rec.Snippet)
	}
	if text == "" {
		text = title
	}

	outcome := models.CaseOutcome(strings.ToLower(strings.TrimSpace(rec.Outcome)))
	if !outcome.Valid() {
		outcome = InferOutcome(text)
	}
	caseType := models.CaseType(strings.ToLower(strings.TrimSpace(rec.CaseType)))
	if !caseType.Valid() {
		caseType = InferCaseType(title, text)
	}

	court := strings.TrimSpace(rec.Court)
	if strings.EqualFold(court, "Unknown Court") {
		court = ""
	}

	return models.CaseDocument{
		ID:             models.CaseIDFromURL(url),
		Title:          title,
		PartyNames:     parties,
		DefendantNames: defendants,
		FullText:       text,
		Outcome:        outcome,
		CaseType:       caseType,
		Court:          court,
		FiledDate:      filed,
		SourceURL:      url,
		IngestedAt:     now,
	}, nil
}

// ParseDate accepts the date shapes the scraper emits. Day comes before
// month in numeric dates.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := dateInText.FindString(s); m != "" && m != s {
		s = m
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// SplitParties splits an "A vs B" title into plaintiff and defendant names.
// A title without a separator yields one party and no defendants.
func SplitParties(title string) (plaintiffs, defendants []string) {
	title = titleDate.ReplaceAllString(title, "")
	parts := partySeparator.Split(title, 2)
	if len(parts) == 2 {
		return cleanNames(parts[:1]), cleanNames(parts[1:])
	}
	return cleanNames(parts), nil
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.Trim(strings.Join(strings.Fields(n), " "), " .,;:")
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

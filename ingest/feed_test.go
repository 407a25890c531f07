package ingest

import (
	"strings"
	"testing"
	"time"

	"nyaydarpan-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ingestNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const sampleFeed = `[
  {
    "title": "Sharma Traders vs TechCorp India Pvt Ltd on 12 March, 2024",
    "url": "https://indiankanoon.org/doc/1001/",
    "court": "High Court",
    "date": "12-03-2024",
    "snippet": "Suit for recovery of unpaid invoices under the supply agreement. The suit is decreed in favour of the plaintiff.",
    "source": "Indian Kanoon",
    "scraped_at": "2025-05-30T10:00:00"
  },
  {
    "title": "Sharma Traders vs TechCorp India Pvt Ltd on 12 March, 2024",
    "url": "https://indiankanoon.org/doc/1001/",
    "court": "High Court",
    "date": "12-03-2024",
    "snippet": "duplicate",
    "source": "Indian Kanoon"
  },
  {
    "title": "State Of Maharashtra vs Acme Logistics",
    "url": "https://indiankanoon.org/doc/1002/",
    "court": "Sessions Court",
    "date": "2019/7/4",
    "snippet": "The accused is acquitted of all charges.",
    "source": "Indian Kanoon"
  },
  {
    "title": "Workmen Of Globex v. Globex Ltd",
    "url": "https://indiankanoon.org/doc/1003/",
    "court": "Unknown Court",
    "date": "Date not found",
    "snippet": "Industrial dispute regarding retrenchment.",
    "source": "Indian Kanoon"
  },
  {
    "title": "Initech Solutions versus Zenith Motors on 5 January, 2021",
    "url": "https://indiankanoon.org/doc/1004/",
    "court": "Unknown Court",
    "date": "Date not found",
    "snippet": "Matter amicably settled between the parties.",
    "source": "Indian Kanoon",
    "full_text": "Full judgment text. The matter was settled between the parties.",
    "defendants": ["Zenith Motors Limited"],
    "outcome": "settled",
    "case_type": "contract_dispute"
  },
  {
    "title": "",
    "url": "https://indiankanoon.org/doc/1005/",
    "date": "01-01-2020"
  }
]`

func TestParseFeed(t *testing.T) {
	docs, stats, err := ParseFeed(strings.NewReader(sampleFeed), ingestNow)
	require.NoError(t, err)

	assert.Equal(t, FeedStats{Records: 6, Duplicates: 1, Skipped: 2}, stats)
	require.Len(t, docs, 3)

	tc := docs[0]
	assert.Equal(t, models.CaseIDFromURL("https://indiankanoon.org/doc/1001/"), tc.ID)
	assert.Equal(t, []string{"Sharma Traders", "TechCorp India Pvt Ltd"}, tc.PartyNames)
	assert.Equal(t, []string{"TechCorp India Pvt Ltd"}, tc.DefendantNames)
	assert.Equal(t, models.OutcomePlaintiffWon, tc.Outcome)
	assert.Equal(t, models.CaseTypeContractDispute, tc.CaseType)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), tc.FiledDate)
	assert.Equal(t, "High Court", tc.Court)
	assert.Contains(t, tc.FullText, "unpaid invoices")
	assert.Equal(t, ingestNow, tc.IngestedAt)

	state := docs[1]
	assert.Equal(t, models.CaseTypeCriminal, state.CaseType)
	assert.Equal(t, models.OutcomeDefendantWon, state.Outcome)
	assert.Equal(t, time.Date(2019, 7, 4, 0, 0, 0, 0, time.UTC), state.FiledDate)

	rich := docs[2]
	assert.Equal(t, time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC), rich.FiledDate, "date taken from the title")
	assert.Equal(t, []string{"Initech Solutions", "Zenith Motors", "Zenith Motors Limited"}, rich.PartyNames, "defendants are always parties")
	assert.Equal(t, []string{"Zenith Motors Limited"}, rich.DefendantNames)
	assert.Equal(t, models.OutcomeSettled, rich.Outcome)
	assert.Equal(t, models.CaseTypeContractDispute, rich.CaseType)
	assert.Equal(t, "", rich.Court)
	assert.True(t, strings.HasPrefix(rich.FullText, "Full judgment text"))
}

func TestParseFeedRejectsInvalidJSON(t *testing.T) {
	_, _, err := ParseFeed(strings.NewReader(`{"title":"not an array"}`), ingestNow)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"05-03-2021", time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"5/3/2021", time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"2021-03-05", time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"5 March 2021", time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"5 Mar 2021", time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"12 March, 2020", time.Date(2020, 3, 12, 0, 0, 0, 0, time.UTC), true},
		{"Judgment dated 05-03-2021 by the bench", time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"Date not found", time.Time{}, false},
		{"", time.Time{}, false},
		{"31-02-2021", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitParties(t *testing.T) {
	tests := []struct {
		title      string
		plaintiffs []string
		defendants []string
	}{
		{"A Ltd vs B Pvt Ltd", []string{"A Ltd"}, []string{"B Pvt Ltd"}},
		{"A Ltd Vs. B Pvt Ltd on 3 June, 2022", []string{"A Ltd"}, []string{"B Pvt Ltd"}},
		{"A v. B", []string{"A"}, []string{"B"}},
		{"A versus B vs C", []string{"A"}, []string{"B vs C"}},
		{"In Re: Tata Motors", []string{"In Re: Tata Motors"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			p, d := SplitParties(tt.title)
			assert.Equal(t, tt.plaintiffs, p)
			assert.Equal(t, tt.defendants, d)
		})
	}
}

func TestInferOutcome(t *testing.T) {
	assert.Equal(t, models.OutcomeSettled, InferOutcome("The dispute was amicably settled."))
	assert.Equal(t, models.OutcomePlaintiffWon, InferOutcome("Accordingly the appeal is allowed with costs."))
	assert.Equal(t, models.OutcomeDefendantWon, InferOutcome("Held in favour of the respondent."))
	assert.Equal(t, models.OutcomeDismissed, InferOutcome("The writ petition is dismissed for default."))
	assert.Equal(t, models.OutcomeUnknown, InferOutcome("Hearing adjourned to next month."))
}

func TestInferCaseType(t *testing.T) {
	assert.Equal(t, models.CaseTypeCriminal, InferCaseType("State vs Ramesh", "appeal under the contract act"))
	assert.Equal(t, models.CaseTypeCriminal, InferCaseType("A vs B", "complaint under section 138 of the Negotiable Instruments Act"))
	assert.Equal(t, models.CaseTypeLabor, InferCaseType("Workmen vs Mill", "industrial dispute"))
	assert.Equal(t, models.CaseTypeContractDispute, InferCaseType("A vs B", "breach of contract"))
	assert.Equal(t, models.CaseTypeCivil, InferCaseType("A vs B", "suit for permanent injunction"))
	assert.Equal(t, models.CaseTypeOther, InferCaseType("A vs B", "taxation of capital gains"))
	assert.Equal(t, models.CaseTypeOther, InferCaseType("A vs B", "the bailiff arrived"), "bail matches whole words only")
}

func TestParseReviews(t *testing.T) {
	feed := `[
	  {"company_name": "TechCorp India", "source": "Glassdoor", "rating": 3.5, "title": "Decent", "content": "Good learning", "date": "2024-11-02"},
	  {"company_name": "TechCorp India", "source": "Glassdoor", "rating": 3.5, "title": "Decent", "content": "Good learning", "date": "2024-11-02"},
	  {"company_name": "TechCorp India", "source": "G2", "rating": 7, "title": "Bad scale"},
	  {"company_name": "", "source": "G2", "rating": 4},
	  {"company_name": "Globex", "source": "AmbitionBox", "rating": 4.2, "title": "Fine", "content": "ok"}
	]`

	reviews, stats, err := ParseReviews(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Equal(t, FeedStats{Records: 5, Duplicates: 1, Skipped: 2}, stats)
	require.Len(t, reviews, 2)

	assert.Equal(t, "TechCorp India", reviews[0].CompanyName)
	assert.Equal(t, time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC), reviews[0].ReviewDate)
	assert.True(t, reviews[1].ReviewDate.IsZero())
	assert.NotEqual(t, reviews[0].ID, reviews[1].ID)
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TechCorp India Pvt. Ltd.", "techcorp india"},
		{"TechCorp India Private Limited", "techcorp india"},
		{"  ACME   Corporation ", "acme"},
		{"Tata & Co.", "tata"},
		{"Johnson & Johnson", "johnson and johnson"},
		{"M/s. Sharma Traders", "m s sharma traders"},
		{"ＴｅｃｈＣｏｒｐ", "techcorp"},
		{"Müller GmbH", "müller"},
		{"Ltd", "ltd"},
		{"Private Limited", "private"},
		{"Infosys Ltd. (India)", "infosys ltd india"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeNameIsIdempotent(t *testing.T) {
	inputs := []string{
		"TechCorp India Pvt. Ltd.",
		"Tata & Co.",
		"and co",
		"Rock And",
		"STRASSE GmbH & Co. KG",
		"ＡＢＣ　Ｌｔｄ",
		"Ltd Ltd Ltd",
		"Reliance Industries Limited",
		"x and co and",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

func TestAliases(t *testing.T) {
	assert.Equal(t, []string{"tech corp", "techcorp"}, Aliases("Tech Corp Ltd"))
	assert.Equal(t, []string{"infosys"}, Aliases("Infosys Limited"))
	assert.Nil(t, Aliases("  "))
}

func TestNameTokens(t *testing.T) {
	tokens := NameTokens([]string{"M/s. Sharma & Sons", "TechCorp India Pvt Ltd"})
	assert.Equal(t, []string{"india", "msharmaandsons", "sharma", "sons", "techcorp", "techcorpindia"}, tokens)
}

func TestNameMatchConfidence(t *testing.T) {
	aliases := Aliases("TechCorp India")

	assert.Equal(t, 1.0, NameMatchConfidence(aliases, "TechCorp India Pvt Ltd", 1))
	assert.Equal(t, 1.0, NameMatchConfidence(aliases, "Tech Corp India Limited", 1), "compact forms match")
	assert.InDelta(t, 0.923, NameMatchConfidence(aliases, "Techcorp Indai", 1), 0.01)
	assert.InDelta(t, 0.5, NameMatchConfidence(Aliases("TechCorp"), "TechCorp India", 1), 0.01)
	assert.Less(t, NameMatchConfidence(aliases, "Zenith Motors", 1), 0.4)
	assert.Equal(t, 0.0, NameMatchConfidence(aliases, "", 1))
}

func TestEditSimilarityThreshold(t *testing.T) {
	assert.Equal(t, 1.0, editSimilarity("abcdef", "abcdeg", 1), "one edit is free")
	assert.InDelta(t, 0.9, editSimilarity("abcdefghij", "abcdefghxy", 1), 1e-9)
	assert.Equal(t, 0.0, editSimilarity("abcdefghij", "abcdefghxy", 0))
	assert.Equal(t, 0.0, editSimilarity("abcdef", "abcdxy", 1), "two edits in six letters")
	assert.Equal(t, 0.0, editSimilarity("abcd", "abce", 1), "short names never match by edits")
	assert.Equal(t, 0.0, editSimilarity("techcorp", "techcorpindia", 1))
	assert.Equal(t, 0.0, editSimilarity("tatamotors", "tatasteel", 1))
}

func TestNameMatchConfidenceRejectsSharedGenericTokens(t *testing.T) {
	tests := []struct {
		query string
		party string
		match bool
	}{
		{"TechCorp India", "Union of India", false},
		{"TechCorp India", "State of Maharashtra", false},
		{"TechCorp India", "Infosys India Pvt Ltd", false},
		{"TechCorp India", "National Services Group", false},
		{"Tata Motors", "Tata Steel", false},
		{"Tata Motors", "Tata Motors Ltd", true},
		{"Reliance Industries", "Bharat Industries", false},
		{"Union of India", "State of Kerala", false},
		{"Union of India", "Union of India", true},
		{"TechCorp India", "Techcorp Indai", true},
		{"TechCorp India", "M/s TechCorp India Private Limited", true},
		{"Sharma Traders", "Sharma Trader", true},
		{"Sharma Traders", "Verma Traders", false},
	}
	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.party, func(t *testing.T) {
			got := NameMatchConfidence(Aliases(tt.query), tt.party, 1)
			if tt.match {
				assert.GreaterOrEqual(t, got, 0.4)
			} else {
				assert.Less(t, got, 0.4)
			}
		})
	}
}

func TestTokenOverlap(t *testing.T) {
	assert.Equal(t, 0.0, tokenOverlap("techcorp india", "union of india"), "no distinctive token shared")
	assert.InDelta(t, 1.0/3, tokenOverlap("tata motors", "tata steel"), 1e-9)
	assert.Equal(t, 0.5, tokenOverlap("techcorp", "techcorp india"))
	assert.Equal(t, 1.0, tokenOverlap("union of india", "india union"), "generic-only names compare all tokens")
	assert.Equal(t, 0.0, tokenOverlap("and of", "and of"))
}

func TestLookupTokens(t *testing.T) {
	assert.Equal(t, []string{"techcorp", "techcorpindia"}, LookupTokens(Aliases("TechCorp India Pvt Ltd")))
	assert.Equal(t, []string{"india", "union", "unionofindia"}, LookupTokens(Aliases("Union of India")))
	assert.Equal(t, []string{"motors", "tata", "tatamotors"}, LookupTokens(Aliases("Tata Motors")))
	assert.Empty(t, LookupTokens(nil))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein([]rune("same"), []rune("same")))
	assert.Equal(t, 3, levenshtein([]rune("kitten"), []rune("sitting")))
	assert.Equal(t, 4, levenshtein([]rune(""), []rune("abcd")))
}

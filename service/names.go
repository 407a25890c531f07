package service

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// corporateSuffixes are trailing tokens that do not distinguish one company from another
var corporateSuffixes = map[string]bool{
	"pvt":          true,
	"private":      true,
	"ltd":          true,
	"limited":      true,
	"llp":          true,
	"llc":          true,
	"inc":          true,
	"incorporated": true,
	"co":           true,
	"company":      true,
	"corp":         true,
	"corporation":  true,
	"plc":          true,
	"gmbh":         true,
	"pte":          true,
}

// stopTokens never select candidates on their own
var stopTokens = map[string]bool{
	"and": true,
	"the": true,
	"of":  true,
	"m":   true, // from "M/s"
	"s":   true,
	"vs":  true,
	"v":   true,
}

// genericTokens are common in party names but say little about who a party is.
// They count towards a match only next to a shared distinctive token.
var genericTokens = map[string]bool{
	"india":         true,
	"indian":        true,
	"bharat":        true,
	"union":         true,
	"state":         true,
	"government":    true,
	"govt":          true,
	"national":      true,
	"international": true,
	"global":        true,
	"group":         true,
	"industries":    true,
	"industry":      true,
	"enterprises":   true,
	"enterprise":    true,
	"traders":       true,
	"trading":       true,
	"services":      true,
	"service":       true,
	"solutions":     true,
	"technologies":  true,
	"technology":    true,
	"systems":       true,
	"holdings":      true,
	"ventures":      true,
	"associates":    true,
	"exports":       true,
	"imports":       true,
	"bank":          true,
	"commissioner":  true,
	"municipal":     true,
	"new":           true,
}

// minEditLen is the shortest compact name that may match by edit distance
const minEditLen = 6

var folder = cases.Fold()

// NormalizeName canonicalizes a party or company name: NFKC, case-folded,
// "&" spelled out, punctuation removed, whitespace collapsed and trailing
// corporate suffixes stripped. A name is never stripped to nothing.
// NormalizeName(NormalizeName(x)) == NormalizeName(x).
func NormalizeName(raw string) string {
	s := folder.String(norm.NFKC.String(raw))
	s = strings.ReplaceAll(s, "&", " and ")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)

	tokens := strings.Fields(s)
	stripped := false
	for {
		n := len(tokens)
		if n > 1 && corporateSuffixes[tokens[n-1]] {
			tokens = tokens[:n-1]
			stripped = true
			continue
		}
		// "Tata & Co" leaves a dangling connective
		if stripped && n > 1 && tokens[n-1] == "and" {
			tokens = tokens[:n-1]
			continue
		}
		break
	}
	return strings.Join(tokens, " ")
}

// compact removes every space from a normalized name
func compact(normalized string) string {
	return strings.ReplaceAll(normalized, " ", "")
}

// Aliases returns the normalized name and, when different, its compact form
func Aliases(raw string) []string {
	n := NormalizeName(raw)
	if n == "" {
		return nil
	}
	c := compact(n)
	if c == n {
		return []string{n}
	}
	return []string{n, c}
}

// NameTokens returns the distinct lookup tokens for a set of names: every
// significant token of each normalized name plus its compact form
func NameTokens(names []string) []string {
	seen := make(map[string]bool)
	for _, name := range names {
		n := NormalizeName(name)
		if n == "" {
			continue
		}
		for _, tok := range strings.Fields(n) {
			if !stopTokens[tok] {
				seen[tok] = true
			}
		}
		if c := compact(n); !stopTokens[c] {
			seen[c] = true
		}
	}

	tokens := make([]string, 0, len(seen))
	for tok := range seen {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// LookupTokens returns the tokens used to find candidate cases for aliases:
// the compact forms and the distinctive tokens. Generic tokens are used only
// when a name has nothing else.
func LookupTokens(aliases []string) []string {
	seen := make(map[string]bool)
	for _, alias := range aliases {
		n := NormalizeName(alias)
		if n == "" {
			continue
		}
		if c := compact(n); !stopTokens[c] {
			seen[c] = true
		}
		sig, distinctive := significantTokens(n)
		if len(distinctive) == 0 {
			distinctive = sig
		}
		for tok := range distinctive {
			seen[tok] = true
		}
	}

	tokens := make([]string, 0, len(seen))
	for tok := range seen {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// significantTokens splits a normalized name into its non-stop tokens and the
// subset of those that are not generic
func significantTokens(normalized string) (sig, distinctive map[string]bool) {
	sig = make(map[string]bool)
	distinctive = make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		if stopTokens[tok] {
			continue
		}
		sig[tok] = true
		if !genericTokens[tok] {
			distinctive[tok] = true
		}
	}
	return sig, distinctive
}

// NameMatchConfidence scores how likely partyName refers to the entity named by
// aliases, in [0,1]. Exact normalized or compact matches score 1. Otherwise the
// score is the better of token overlap and edit similarity. Token overlap is
// zero unless a distinctive token of the alias is shared; edit similarity only
// applies to near misses and starts dropping after editThreshold edits.
func NameMatchConfidence(aliases []string, partyName string, editThreshold int) float64 {
	p := NormalizeName(partyName)
	if p == "" {
		return 0
	}
	pc := compact(p)

	best := 0.0
	for _, alias := range aliases {
		a := NormalizeName(alias)
		if a == "" {
			continue
		}
		ac := compact(a)
		if a == p || ac == pc {
			return 1.0
		}
		if s := tokenOverlap(a, p); s > best {
			best = s
		}
		if s := editSimilarity(ac, pc, editThreshold); s > best {
			best = s
		}
	}
	return best
}

// BestNameMatch returns the highest confidence of aliases against any of names
func BestNameMatch(aliases []string, names []string, editThreshold int) float64 {
	best := 0.0
	for _, name := range names {
		if c := NameMatchConfidence(aliases, name, editThreshold); c > best {
			best = c
		}
	}
	return best
}

// tokenOverlap is the Jaccard index of the significant tokens of a and b.
// When a has distinctive tokens, at least one of them must appear in b.
func tokenOverlap(a, b string) float64 {
	aSig, aDistinct := significantTokens(a)
	bSig, _ := significantTokens(b)
	if len(aSig) == 0 || len(bSig) == 0 {
		return 0
	}

	if len(aDistinct) > 0 {
		found := false
		for t := range aDistinct {
			if bSig[t] {
				found = true
				break
			}
		}
		if !found {
			return 0
		}
	}

	shared := 0
	for t := range aSig {
		if bSig[t] {
			shared++
		}
	}
	return float64(shared) / float64(len(aSig)+len(bSig)-shared)
}

// editSimilarity scores near misses between compact names. Short names and
// names more than threshold plus a tenth of the longer name apart score zero.
func editSimilarity(a, b string, threshold int) float64 {
	ar, br := []rune(a), []rune(b)
	if min(len(ar), len(br)) < minEditLen {
		return 0
	}
	maxLen := max(len(ar), len(br))
	dist := levenshtein(ar, br)
	if dist > threshold+maxLen/10 {
		return 0
	}
	d := max(dist-threshold, 0)
	return 1 - float64(d)/float64(maxLen)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

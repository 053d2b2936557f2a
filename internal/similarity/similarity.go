// Package similarity scores how alike two short strings are, for flagging
// probable duplicate books whose titles or author names are spelled differently.
//
// Scores are Dice coefficients over adjacent-character bigrams of the
// normalized strings and range from 0 (nothing shared) to 1 (identical).
package similarity

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the mean title/author score at which two books are
// reported as possible duplicates.
const DefaultThreshold = 0.82

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// Normalize folds compatibility forms and diacritics, lowercases, replaces
// anything that is not a letter, digit or space with a space, and collapses whitespace.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = stripDiacritics(s)
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Bigrams returns the adjacent character pairs of the normalized string, in order.
func Bigrams(s string) []string {
	normalized := Normalize(s)
	if len(normalized) < 2 {
		return nil
	}
	grams := make([]string, 0, len(normalized)-1)
	for i := 0; i < len(normalized)-1; i++ {
		grams = append(grams, normalized[i:i+2])
	}
	return grams
}

// Score returns the Dice coefficient of a and b. Each bigram of b can be
// matched at most once.
func Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	aGrams := Bigrams(a)
	bGrams := Bigrams(b)
	if len(aGrams) == 0 || len(bGrams) == 0 {
		return 0
	}

	remaining := make(map[string]int, len(bGrams))
	for _, g := range bGrams {
		remaining[g]++
	}

	matches := 0
	for _, g := range aGrams {
		if remaining[g] > 0 {
			remaining[g]--
			matches++
		}
	}

	return float64(2*matches) / float64(len(aGrams)+len(bGrams))
}

type options struct {
	threshold float64
}

// Option adjusts duplicate detection.
type Option func(*options)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

func buildOptions(opts []Option) options {
	o := options{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PairScore is the mean of the title score and the author score.
func PairScore(titleA, authorA, titleB, authorB string) float64 {
	return (Score(titleA, titleB) + Score(authorA, authorB)) / 2
}

// IsPossibleDuplicate reports whether the mean title/author score reaches the threshold.
func IsPossibleDuplicate(titleA, authorA, titleB, authorB string, opts ...Option) bool {
	o := buildOptions(opts)
	return PairScore(titleA, authorA, titleB, authorB) >= o.threshold
}

// Candidate is an existing book compared against a probe.
type Candidate struct {
	ID     string
	Title  string
	Author string
}

// Match is a candidate that reached the threshold.
type Match struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Score  float64 `json:"score"`
}

// Rank scores every candidate against title/author and returns at most limit
// matches at or above the threshold, best first. Ties keep candidate order.
func Rank(title, author string, candidates []Candidate, limit int, opts ...Option) []Match {
	o := buildOptions(opts)

	matches := make([]Match, 0)
	for _, c := range candidates {
		score := PairScore(title, author, c.Title, c.Author)
		if score < o.threshold {
			continue
		}
		matches = append(matches, Match{ID: c.ID, Title: c.Title, Author: c.Author, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

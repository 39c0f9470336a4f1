// Package lexical ranks free-text blocks against a query by approximate
// word overlap. It is used where no embeddings exist, such as scraped pages.
package lexical

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/token"
)

// DefaultThreshold accepts blocks whose query words are on average
// at most 30% edits away from some block word.
const DefaultThreshold = 0.3

// Entry is one candidate block. Key identifies it to the caller.
type Entry struct {
	Key  string
	Text string
}

// Match is an accepted block, best first.
type Match struct {
	Key  string
	Text string
}

// Matcher scores blocks by mean per-word edit distance. 0 accepts only
// blocks containing every query word; 1 accepts anything.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher. threshold must be within [0, 1].
func NewMatcher(threshold float64) (*Matcher, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold %v outside [0,1]: %w", threshold, domain.ErrInvalidInput)
	}
	return &Matcher{threshold: threshold}, nil
}

// Match returns the entries whose score is within the threshold, ordered by
// ascending score with ties kept in corpus order. An empty query or corpus
// yields no matches.
func (m *Matcher) Match(query string, corpus []Entry) []Match {
	terms := token.Content(token.Words(query))
	if len(terms) == 0 || len(corpus) == 0 {
		return nil
	}

	type scored struct {
		entry Entry
		score float64
	}
	var hits []scored
	for _, e := range corpus {
		s := score(terms, e.Text)
		if s <= m.threshold {
			hits = append(hits, scored{entry: e, score: s})
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		return cmp.Compare(a.score, b.score)
	})

	out := make([]Match, len(hits))
	for i, h := range hits {
		out[i] = Match{Key: h.entry.Key, Text: h.entry.Text}
	}
	return out
}

// score is the mean over terms of the best normalized distance to any block word.
// A term contained in the folded block text scores 0.
func score(terms []string, text string) float64 {
	words := token.Words(text)
	folded := strings.Join(words, " ")

	var total float64
	for _, t := range terms {
		total += bestDistance(t, folded, words)
	}
	return total / float64(len(terms))
}

func bestDistance(term, folded string, words []string) float64 {
	if strings.Contains(folded, term) {
		return 0
	}
	best := 1.0
	termLen := utf8.RuneCountInString(term)
	for _, w := range words {
		maxLen := max(termLen, utf8.RuneCountInString(w))
		if maxLen == 0 {
			continue
		}
		d := float64(levenshtein.ComputeDistance(term, w)) / float64(maxLen)
		if d < best {
			best = d
		}
	}
	return best
}

// SplitBlocks splits text into trimmed, non-empty blocks separated by blank lines.
func SplitBlocks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var blocks []string
	for _, b := range strings.Split(text, "\n\n") {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// Package token splits text into case-folded words shared by the local
// embedding model and the lexical matcher.
package token

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Words returns the case-folded letter/digit runs of s, in order.
// Apostrophes inside a word are kept ("don't").
func Words(s string) []string {
	folded := cases.Fold().String(s)
	runes := []rune(folded)

	var words []string
	start := -1
	for i, r := range runes {
		inWord := unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
		if r == '\'' && start >= 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]) {
			inWord = true
		}
		switch {
		case inWord && start < 0:
			start = i
		case !inWord && start >= 0:
			words = append(words, string(runes[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, string(runes[start:]))
	}
	return words
}

// Content drops stop-words from words. When nothing would remain the
// input is returned unchanged so short queries like "how to" still carry signal.
func Content(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !IsStopWord(w) {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return words
	}
	return out
}

// IsStopWord reports whether w (already folded) is an English function word.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

var stopWords = func() map[string]struct{} {
	list := strings.Fields(`
		a about above after again against all am an and any are as at
		be because been before being below between both but by
		can could did do does doing don't down during each few for from further
		had has have having he her here hers herself him himself his how
		i if in into is it it's its itself just let's me more most my myself
		no nor not now of off on once only or other our ours ourselves out over own
		same she should so some such than that the their theirs them themselves then
		there these they this those through to too under until up very
		was we were what when where which while who whom why will with would
		you your yours yourself yourselves`)
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}()

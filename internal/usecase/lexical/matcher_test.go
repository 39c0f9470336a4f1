package lexical

import (
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/supportrag/internal/domain"
)

func newMatcher(t *testing.T, threshold float64) *Matcher {
	t.Helper()
	m, err := NewMatcher(threshold)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	return m
}

func keys(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Key
	}
	return out
}

var corpus = []Entry{
	{Key: "shipping", Text: "Orders ship within two business days."},
	{Key: "returns", Text: "Free returns within thirty days of delivery."},
	{Key: "hours", Text: "Support is open Monday to Friday, 9am to 5pm."},
	{Key: "returns-dup", Text: "Returns are free within thirty days."},
}

func TestNewMatcher_Bounds(t *testing.T) {
	for _, th := range []float64{-0.1, 1.01} {
		if _, err := NewMatcher(th); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("threshold %v: expected ErrInvalidInput, got %v", th, err)
		}
	}
	for _, th := range []float64{0, DefaultThreshold, 1} {
		if _, err := NewMatcher(th); err != nil {
			t.Errorf("threshold %v: unexpected error %v", th, err)
		}
	}
}

func TestMatch_ExactTermsTieKeepsCorpusOrder(t *testing.T) {
	m := newMatcher(t, DefaultThreshold)
	got := keys(m.Match("free returns", corpus))
	want := []string{"returns", "returns-dup"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMatch_ToleratesTypos(t *testing.T) {
	m := newMatcher(t, DefaultThreshold)
	got := keys(m.Match("shiping busines", corpus))
	if len(got) == 0 || got[0] != "shipping" {
		t.Errorf("expected shipping first, got %v", got)
	}
}

func TestMatch_BetterScoreFirst(t *testing.T) {
	m := newMatcher(t, 0.5)
	// "returns" hits both return blocks exactly, "delivery" only the first.
	got := keys(m.Match("returns delivery", corpus))
	if len(got) < 2 || got[0] != "returns" {
		t.Errorf("expected returns first, got %v", got)
	}
}

func TestMatch_ThresholdExtremes(t *testing.T) {
	exact := newMatcher(t, 0)
	if got := keys(exact.Match("shiping", corpus)); len(got) != 0 {
		t.Errorf("threshold 0 must reject typos, got %v", got)
	}
	if got := keys(exact.Match("monday", corpus)); !slices.Equal(got, []string{"hours"}) {
		t.Errorf("threshold 0 must accept exact hits, got %v", got)
	}

	anything := newMatcher(t, 1)
	if got := anything.Match("zzzzqqq", corpus); len(got) != len(corpus) {
		t.Errorf("threshold 1 must accept all blocks, got %d", len(got))
	}
}

func TestMatch_NoMatchIsEmpty(t *testing.T) {
	m := newMatcher(t, DefaultThreshold)
	if got := m.Match("cryptocurrency mining", corpus); len(got) != 0 {
		t.Errorf("expected no matches, got %v", keys(got))
	}
	if got := m.Match("", corpus); got != nil {
		t.Errorf("empty query must match nothing, got %v", got)
	}
	if got := m.Match("returns", nil); got != nil {
		t.Errorf("empty corpus must match nothing, got %v", got)
	}
}

func TestMatch_CaseInsensitive(t *testing.T) {
	m := newMatcher(t, 0)
	if got := keys(m.Match("SUPPORT FRIDAY", corpus)); !slices.Equal(got, []string{"hours"}) {
		t.Errorf("got %v", got)
	}
}

func TestMatch_StopWordOnlyQueryUsesRawTokens(t *testing.T) {
	m := newMatcher(t, 0)
	got := keys(m.Match("to", corpus))
	if !slices.Equal(got, []string{"hours"}) {
		t.Errorf("got %v", got)
	}
}

func TestSplitBlocks(t *testing.T) {
	got := SplitBlocks("URL: a\nfirst\n\n\n\nURL: b\r\nsecond\r\n\r\n  \n\n")
	want := []string{"URL: a\nfirst", "URL: b\nsecond"}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

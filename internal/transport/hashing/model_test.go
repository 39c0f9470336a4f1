package hashing

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/kailas-cloud/supportrag/internal/domain/vector"
)

func loadModel(t *testing.T, dim int) *Model {
	t.Helper()
	m, err := Load(context.Background(), Config{Dim: dim, Seed: "test"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

func embed(t *testing.T, m *Model, text string) []float32 {
	t.Helper()
	res, err := m.Embed(context.Background(), text)
	if err != nil {
		t.Fatalf("Embed(%q): %v", text, err)
	}
	return res.Embedding
}

func TestLoad_InvalidDim(t *testing.T) {
	for _, dim := range []int{0, -1} {
		if _, err := Load(context.Background(), Config{Dim: dim}); err == nil {
			t.Errorf("dim %d: expected error", dim)
		}
	}
}

func TestEmbed_LengthAndUnitNorm(t *testing.T) {
	m := loadModel(t, 512)
	for _, text := range []string{"heat insulation", "?!", "a", "The quick brown fox jumps over the lazy dog"} {
		v := embed(t, m, text)
		if len(v) != 512 {
			t.Fatalf("%q: expected 512 dims, got %d", text, len(v))
		}
		var sum float64
		for _, f := range v {
			sum += float64(f) * float64(f)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("%q: expected unit norm, got %f", text, sum)
		}
	}
}

func TestEmbed_Deterministic(t *testing.T) {
	a := loadModel(t, 64)
	b := loadModel(t, 64)
	if !slices.Equal(embed(t, a, "refund policy"), embed(t, b, "refund policy")) {
		t.Error("same text and seed must give identical vectors")
	}
}

func TestEmbed_SeedChangesVectors(t *testing.T) {
	a := loadModel(t, 64)
	b, err := Load(context.Background(), Config{Dim: 64, Seed: "other"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if slices.Equal(embed(t, a, "refund policy"), embed(t, b, "refund policy")) {
		t.Error("different seeds should give different vectors")
	}
}

func TestEmbed_CaseAndStopWordsIgnored(t *testing.T) {
	m := loadModel(t, 512)
	a := embed(t, m, "What is the Insulation policy?")
	b := embed(t, m, "insulation policy")
	if !slices.Equal(a, b) {
		t.Error("case and stop-words must not change the vector")
	}
}

func TestEmbed_SharedTermsScoreHigher(t *testing.T) {
	m := loadModel(t, 512)
	q := embed(t, m, "What is heat insulation?")
	related := embed(t, m, "Insulation reduces heat transfer between objects.")
	unrelated := embed(t, m, "Invoices are emailed on the first business day of each month.")

	rel := vector.Cosine(q, related)
	unrel := vector.Cosine(q, unrelated)
	if rel <= 0 {
		t.Errorf("expected positive similarity for shared terms, got %f", rel)
	}
	if rel <= unrel {
		t.Errorf("related %f should beat unrelated %f", rel, unrel)
	}
}

func TestEmbed_ReportsTokens(t *testing.T) {
	m := loadModel(t, 16)
	res, err := m.Embed(context.Background(), "reset my password")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if res.TotalTokens != 2 {
		t.Errorf("expected 2 content tokens, got %d", res.TotalTokens)
	}
}

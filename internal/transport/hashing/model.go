// Package hashing is a local, deterministic embedding model: signed feature
// hashing of case-folded unigrams and bigrams into a fixed number of buckets.
// It needs no network and no weights, so it is the default model.
package hashing

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/minio/highwayhash"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/token"
	"github.com/kailas-cloud/supportrag/internal/domain/vector"
)

// Name identifies the model in config, metrics and cache keys.
const Name = "hashing"

// bigramWeight scales adjacent-pair features relative to single words.
const bigramWeight = 0.5

// Config for the hashing model.
type Config struct {
	Dim  int
	Seed string // keys the hash; changing it changes every vector
}

// Model implements domain.Embedder.
type Model struct {
	dim int
	key []byte
}

// Load validates the config and derives the 32-byte HighwayHash key from the seed.
func Load(_ context.Context, cfg Config) (*Model, error) {
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("hashing: dim must be positive, got %d", cfg.Dim)
	}
	zero := make([]byte, highwayhash.Size)
	sum := highwayhash.Sum([]byte(cfg.Seed), zero)
	return &Model{dim: cfg.Dim, key: sum[:]}, nil
}

// Embed returns an L2-normalized vector of length dim. Equal inputs always
// produce equal vectors.
func (m *Model) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	words := token.Content(token.Words(text))
	if len(words) == 0 {
		// punctuation-only input still maps to a non-zero vector
		words = []string{strings.TrimSpace(text)}
	}

	tf := make(map[string]float64, 2*len(words))
	for i, w := range words {
		tf[w]++
		if i > 0 {
			tf[words[i-1]+" "+w] += bigramWeight
		}
	}

	vec := make([]float32, m.dim)
	for feature, count := range tf {
		h := highwayhash.Sum64([]byte(feature), m.key)
		bucket := h % uint64(m.dim)
		weight := 1 + math.Log(count)
		if h>>63 == 1 {
			weight = -weight
		}
		vec[bucket] += float32(weight)
	}
	vector.Normalize(vec)

	return domain.EmbeddingResult{Embedding: vec, TotalTokens: len(words)}, nil
}

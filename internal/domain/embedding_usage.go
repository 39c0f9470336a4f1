package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage accumulates provider tokens spent while serving one HTTP request.
// The handler seeds the context, services add to it, the handler reports it in a header.
type EmbeddingUsage struct {
	TotalTokens int
	Calls       int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext returns the collector, or nil when the context has none.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Record notes one embedding call. Safe on a nil receiver.
func (u *EmbeddingUsage) Record(tokens int) {
	if u == nil {
		return
	}
	u.TotalTokens += tokens
	u.Calls++
}

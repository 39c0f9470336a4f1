package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingModel reports and establishes embedding model readiness.
type EmbeddingModel interface {
	Loaded() bool
	Warmup(ctx context.Context) error
}

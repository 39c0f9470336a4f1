package embedding

import (
	"context"

	"github.com/kailas-cloud/supportrag/internal/domain"
)

// Loader builds a ready-to-use model. It is called at most once per
// successful load; a failed attempt is retried on the next call.
type Loader func(ctx context.Context) (domain.Embedder, error)

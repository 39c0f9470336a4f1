// Package corpus caches scraped website text between requests.
package corpus

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minio/highwayhash"

	"github.com/kailas-cloud/supportrag/internal/db"
	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/webpage"
)

const keyPrefix = domain.KeyPrefix + "corpus:"

var keyHashSeed = []byte("supportrag/corpus/v1-00000000000")

// store is the consumer interface for the corpus cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo stores the scraped pages of one URL list under a key derived from the list.
type Repo struct {
	store store
}

// New creates a corpus repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Load returns the cached pages for urls. ok is false on a miss.
func (r *Repo) Load(ctx context.Context, urls []string) (pages []webpage.Page, ok bool, err error) {
	data, err := r.store.Get(ctx, Key(urls))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get corpus: %w", err)
	}
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, false, fmt.Errorf("decode corpus: %w", err)
	}
	return pages, true, nil
}

// Save caches pages for urls for ttl.
func (r *Repo) Save(ctx context.Context, urls []string, pages []webpage.Page, ttl time.Duration) error {
	data, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, Key(urls), data, ttl); err != nil {
		return fmt.Errorf("set corpus: %w", err)
	}
	return nil
}

// Key derives the cache key of an ordered URL list.
func Key(urls []string) string {
	h, err := highwayhash.New64(keyHashSeed)
	if err != nil {
		panic(err)
	}
	_, _ = h.Write([]byte(strings.Join(urls, "\n")))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

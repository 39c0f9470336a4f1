package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps an existing client (typically rueidis/mock) with
// vector search enabled and already probed.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c, vectorSearch: true, probed: true, hasFT: true}
}

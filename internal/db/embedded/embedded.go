// Package embedded runs an in-process Redis-compatible server (miniredis)
// and exposes it through the regular redis driver. It has no FT module,
// so vector search is always reported unavailable and retrieval uses
// the exhaustive scan.
package embedded

import (
	"fmt"

	"github.com/alicebob/miniredis/v2"

	"github.com/kailas-cloud/supportrag/internal/db"
	"github.com/kailas-cloud/supportrag/internal/db/redis"
)

var _ db.Store = (*Store)(nil)

// Config for the embedded server.
type Config struct {
	// Addr to listen on; empty picks a free loopback port.
	Addr string
}

// Store is a redis.Store bound to an owned miniredis server.
type Store struct {
	*redis.Store
	server *miniredis.Miniredis
}

// Open starts the server and connects a client to it.
func Open(cfg Config) (*Store, error) {
	srv := miniredis.NewMiniRedis()
	var err error
	if cfg.Addr != "" {
		err = srv.StartAddr(cfg.Addr)
	} else {
		err = srv.Start()
	}
	if err != nil {
		return nil, fmt.Errorf("start embedded redis: %w", err)
	}

	st, err := redis.NewStore(redis.Config{
		Addrs:             []string{srv.Addr()},
		ForceSingleClient: true,
	})
	if err != nil {
		srv.Close()
		return nil, err
	}
	return &Store{Store: st, server: srv}, nil
}

// Addr returns the listen address of the embedded server.
func (s *Store) Addr() string { return s.server.Addr() }

// Close disconnects the client and stops the server.
func (s *Store) Close() {
	s.Store.Close()
	s.server.Close()
}

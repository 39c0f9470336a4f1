package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/kailas-cloud/supportrag/internal/db"
)

// probeTimeout bounds a single FT._LIST capability probe.
const probeTimeout = 5 * time.Second

// CreateIndex creates an FT index over HASH keys.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if !s.SupportsVectorSearch(ctx) {
		return db.ErrVectorSearchDisabled
	}
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// SupportsVectorSearch reports whether FT.* commands are usable.
// The server is probed once with FT._LIST; a failed probe caused by
// transport errors is retried on the next call. Concurrent callers share
// one in-flight probe and each stops waiting when its own ctx is done.
func (s *Store) SupportsVectorSearch(ctx context.Context) bool {
	if !s.vectorSearch {
		return false
	}

	s.probeMu.Lock()
	probed, hasFT := s.probed, s.hasFT
	s.probeMu.Unlock()
	if probed {
		return hasFT
	}

	ch := s.probes.DoChan("ft", func() (any, error) {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
		defer cancel()
		return s.probeFT(pctx), nil
	})
	select {
	case <-ctx.Done():
		return false
	case res := <-ch:
		return res.Val.(bool) //nolint:forcetypeassert // probeFT returns bool
	}
}

func (s *Store) probeFT(ctx context.Context) bool {
	err := s.do(ctx, s.b().Arbitrary("FT._LIST").Build()).Error()
	switch {
	case err == nil:
		s.setProbe(true)
		return true
	case isRedisErr(err, "unknown command"):
		s.setProbe(false)
		return false
	default:
		return false
	}
}

func (s *Store) setProbe(hasFT bool) {
	s.probeMu.Lock()
	s.probed, s.hasFT = true, hasFT
	s.probeMu.Unlock()
}

func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}

	args := []string{idx.Name, "ON", "HASH", "PREFIX", strconv.Itoa(len(idx.Prefixes))}
	args = append(args, idx.Prefixes...)
	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		f := &idx.Fields[i]
		args = append(args, f.Name)
		switch f.Type {
		case db.IndexFieldNumeric:
			args = append(args, "NUMERIC", "SORTABLE")
		case db.IndexFieldTag:
			args = append(args, "TAG")
		case db.IndexFieldVector:
			args = append(args, vectorFieldArgs(f)...)
		default:
			return nil, errors.New("unknown field type for " + f.Name)
		}
	}
	return args, nil
}

func vectorFieldArgs(f *db.IndexField) []string {
	distance := f.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if f.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(f.M))
	}
	if f.EFConstruction > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.EFConstruction))
	}
	return append([]string{"VECTOR", "HNSW", strconv.Itoa(len(attrs))}, attrs...)
}

package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/supportrag/internal/db"
	"github.com/kailas-cloud/supportrag/internal/domain/vector"
)

const scoreField = "__vector_score"

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
// Entry scores are 1 - cosine distance, in [-1, 1].
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.VectorField == "" {
		return nil, fmt.Errorf("vector field is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	knn := fmt.Sprintf("*=>[KNN %d @%s $BLOB", q.K, q.VectorField)
	params := []string{"BLOB", rueidis.BinaryString(vector.ToBytes(q.Vector))}
	if q.EFRuntime > 0 {
		knn += " EF_RUNTIME $EF"
		params = append(params, "EF", strconv.Itoa(q.EFRuntime))
	}
	knn += " AS " + scoreField + "]"

	args := []string{q.IndexName, knn}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1))
		args = append(args, q.ReturnFields...)
		args = append(args, scoreField)
	}
	args = append(args, "SORTBY", scoreField, "ASC", "LIMIT", "0", strconv.Itoa(q.K))
	args = append(args, "PARAMS", strconv.Itoa(len(params)))
	args = append(args, params...)
	args = append(args, "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown command") {
			return nil, db.ErrVectorSearchDisabled
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

// parseKNNResult decodes the RESP2 reply [total, key1, fields1, key2, fields2, ...].
func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key, Fields: parseFieldPairs(fields)}
		distStr, ok := entry.Fields[scoreField]
		if !ok {
			continue
		}
		dist, err := strconv.ParseFloat(distStr, 64)
		if err != nil {
			continue
		}
		entry.Score = 1.0 - dist
		delete(entry.Fields, scoreField)

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		k, err := fields[j].ToString()
		if err != nil {
			continue
		}
		v, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[k] = v
	}
	return m
}

package db

import (
	"errors"
	"fmt"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

// DistanceCosine is cosine distance (1 - cosine similarity).
const DistanceCosine DistanceMetric = "COSINE"

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a sortable numeric field.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is an exact-match tag field.
	IndexFieldTag
	// IndexFieldVector is an HNSW vector field.
	IndexFieldVector
)

// IndexField describes a single field of a HASH index schema.
type IndexField struct {
	Name string
	Type IndexFieldType

	Dim            int
	Distance       DistanceMetric
	M              int // max edges per node
	EFConstruction int
}

// IndexDefinition is a complete FT.CREATE definition over HASH keys.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// HNSW build defaults.
const (
	DefaultHNSWM              = 16
	DefaultHNSWEFConstruction = 200
)

// NewVectorIndex returns the definition of a document index: one COSINE
// HNSW vector field plus the given tag and numeric fields.
func NewVectorIndex(name, prefix, vectorField string, dim int, tags, numerics []string) *IndexDefinition {
	def := &IndexDefinition{Name: name, Prefixes: []string{prefix}}
	for _, t := range tags {
		def.Fields = append(def.Fields, IndexField{Name: t, Type: IndexFieldTag})
	}
	for _, n := range numerics {
		def.Fields = append(def.Fields, IndexField{Name: n, Type: IndexFieldNumeric})
	}
	def.Fields = append(def.Fields, IndexField{
		Name:           vectorField,
		Type:           IndexFieldVector,
		Dim:            dim,
		Distance:       DistanceCosine,
		M:              DefaultHNSWM,
		EFConstruction: DefaultHNSWEFConstruction,
	})
	return def
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("invalid index name %q", idx.Name)
	}
	if len(idx.Prefixes) == 0 {
		return errors.New("at least one prefix is required")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = true
		if f.Type == IndexFieldVector && f.Dim <= 0 {
			return fmt.Errorf("vector field %s requires positive DIM", f.Name)
		}
	}
	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}

package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Vector       []float32
	K            int
	EFRuntime    int // HNSW candidate list size; 0 keeps the index default
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit. Score is cosine similarity
// (1 - distance) and may be negative.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

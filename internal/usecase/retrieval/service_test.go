package retrieval

import (
	"context"
	"errors"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/supportrag/internal/domain"
	domdoc "github.com/kailas-cloud/supportrag/internal/domain/document"
	"github.com/kailas-cloud/supportrag/internal/domain/filetype"
	"github.com/kailas-cloud/supportrag/internal/domain/search/result"
	"github.com/kailas-cloud/supportrag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockANN struct {
	supported bool
	results   []result.Result
	err       error
	calls     int
	gotEF     int
	gotLimit  int
}

func (m *mockANN) SupportsVectorSearch(_ context.Context) bool { return m.supported }

func (m *mockANN) VectorSearch(_ context.Context, _ []float32, numCandidates, limit int) ([]result.Result, error) {
	m.calls++
	m.gotEF = numCandidates
	m.gotLimit = limit
	return m.results, m.err
}

type mockDocs struct {
	docs  []domdoc.Document
	err   error
	calls int
}

func (m *mockDocs) FindScorable(_ context.Context) ([]domdoc.Document, error) {
	m.calls++
	return m.docs, m.err
}

func makeDoc(seq int64, emb []float32) domdoc.Document {
	id := "d" + strconv.FormatInt(seq, 10)
	return domdoc.Reconstruct(id, seq, id+".txt", " text of "+id+" ", filetype.Text, emb, "admin", time.Unix(seq, 0).UTC())
}

// fixtureCorpus scored against query [1,0,0]:
// d1=0, d2=0.7071, d3=1, d4=0.6, d5=0.7071 (ties with d2, inserted later).
func fixtureCorpus() []domdoc.Document {
	return []domdoc.Document{
		makeDoc(1, []float32{0, 1, 0}),
		makeDoc(2, []float32{1, 1, 0}),
		makeDoc(3, []float32{1, 0, 0}),
		makeDoc(4, []float32{3, 4, 0}),
		makeDoc(5, []float32{2, 2, 0}),
	}
}

var query = []float32{1, 0, 0}

func ids(rs []result.Result) string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].ID()
	}
	return strings.Join(out, ",")
}

// --- Tests ---

func TestRetrieve_EmptyQuery(t *testing.T) {
	svc := New(&mockEmbedder{vec: query}, nil, &mockDocs{}, DefaultConfig())

	for _, q := range []string{"", "  \t"} {
		_, err := svc.Retrieve(context.Background(), q)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("query %q: expected ErrInvalidQuery, got %v", q, err)
		}
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("query %q: ErrInvalidQuery should wrap ErrInvalidInput", q)
		}
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	docs := &mockDocs{}
	svc := New(&mockEmbedder{err: domain.ErrModelUnavailable}, nil, docs, DefaultConfig())

	_, err := svc.Retrieve(context.Background(), "hello")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if docs.calls != 0 {
		t.Error("store should not be read when embedding fails")
	}
}

func TestRetrieve_ANNResultsReturnedDirectly(t *testing.T) {
	ann := &mockANN{supported: true, results: []result.Result{
		result.New("a", "A", "alpha", 0.9, result.PathANN),
		result.New("b", "B", "beta", 0.01, result.PathANN),
	}}
	docs := &mockDocs{docs: fixtureCorpus()}
	svc := New(&mockEmbedder{vec: query}, ann, docs, DefaultConfig())

	got, err := svc.Retrieve(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids(got) != "a,b" {
		t.Errorf("expected ANN results a,b, got %s", ids(got))
	}
	for i := range got {
		if got[i].Path() != result.PathANN {
			t.Errorf("result %d: path %q, want ann", i, got[i].Path())
		}
	}
	if docs.calls != 0 {
		t.Error("exhaustive scan should not run when ANN answers")
	}
	if ann.gotEF != DefaultNumCandidates || ann.gotLimit != DefaultK {
		t.Errorf("VectorSearch(numCandidates=%d, limit=%d)", ann.gotEF, ann.gotLimit)
	}
}

// Scenario C: ANN fails or is empty; the exhaustive ranking must match the
// hand-computed cosine order of the fixture.
func TestRetrieve_FallbackMatchesHandRanking(t *testing.T) {
	cases := []struct {
		name string
		ann  VectorSearcher
	}{
		{"no index", nil},
		{"capability absent", &mockANN{supported: false}},
		{"ann error", &mockANN{supported: true, err: domain.ErrStoreUnavailable}},
		{"ann unsupported", &mockANN{supported: true, err: domain.ErrVectorSearchUnsupported}},
		{"ann empty", &mockANN{supported: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockEmbedder{vec: query}, tc.ann, &mockDocs{docs: fixtureCorpus()}, DefaultConfig())

			got, err := svc.Retrieve(context.Background(), "hello")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ids(got) != "d3,d2,d5" {
				t.Fatalf("expected d3,d2,d5, got %s", ids(got))
			}
			want := []float64{1, 1 / math.Sqrt2, 1 / math.Sqrt2}
			for i := range got {
				if math.Abs(got[i].Score()-want[i]) > 1e-6 {
					t.Errorf("result %d score %v, want %v", i, got[i].Score(), want[i])
				}
				if got[i].Path() != result.PathExhaustive {
					t.Errorf("result %d path %q, want exhaustive", i, got[i].Path())
				}
			}
		})
	}
}

func TestRetrieve_SortedAndBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 10
	svc := New(&mockEmbedder{vec: query}, nil, &mockDocs{docs: fixtureCorpus()}, cfg)

	got, err := svc.Retrieve(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// d1 scores 0 and falls under the floor.
	if ids(got) != "d3,d2,d5,d4" {
		t.Fatalf("expected d3,d2,d5,d4, got %s", ids(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score() > got[i-1].Score() {
			t.Errorf("results not sorted at %d", i)
		}
	}
}

func TestRetrieve_MinScoreFloor(t *testing.T) {
	docs := []domdoc.Document{
		makeDoc(1, []float32{0, 1, 0}),            // 0
		makeDoc(2, []float32{-1, 0, 0}),           // -1
		makeDoc(3, []float32{0.02, 0.9998, 0}),    // ~0.02, not above the floor
		makeDoc(4, []float32{0.0001, 0.001, 0.0}), // ~0.0995
	}
	svc := New(&mockEmbedder{vec: query}, nil, &mockDocs{docs: docs}, DefaultConfig())

	got, err := svc.Retrieve(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids(got) != "d4" {
		t.Errorf("expected only d4 above the floor, got %s", ids(got))
	}
}

func TestRetrieve_SkipsMismatchedAndMissingEmbeddings(t *testing.T) {
	docs := []domdoc.Document{
		makeDoc(1, []float32{1, 0}),    // wrong length
		makeDoc(2, nil),                // no embedding
		makeDoc(3, []float32{1, 1, 0}), // scorable
	}
	before := testutil.ToFloat64(metrics.DimensionMismatchTotal)
	svc := New(&mockEmbedder{vec: query}, nil, &mockDocs{docs: docs}, DefaultConfig())

	got, err := svc.Retrieve(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids(got) != "d3" {
		t.Errorf("expected d3, got %s", ids(got))
	}
	if diff := testutil.ToFloat64(metrics.DimensionMismatchTotal) - before; diff != 1 {
		t.Errorf("expected one mismatch counted, got %v", diff)
	}
}

func TestRetrieve_NoRelevantContent(t *testing.T) {
	cases := map[string][]domdoc.Document{
		"empty corpus":    nil,
		"all below floor": {makeDoc(1, []float32{0, 1, 0}), makeDoc(2, []float32{-1, 0, 0})},
	}
	for name, docs := range cases {
		t.Run(name, func(t *testing.T) {
			svc := New(&mockEmbedder{vec: query}, &mockANN{supported: true}, &mockDocs{docs: docs}, DefaultConfig())

			_, err := svc.Retrieve(context.Background(), "hello")
			if !errors.Is(err, domain.ErrNoRelevantContent) {
				t.Fatalf("expected ErrNoRelevantContent, got %v", err)
			}
			if errors.Is(err, domain.ErrStoreUnavailable) {
				t.Error("no-match must not look like a system error")
			}
		})
	}
}

func TestRetrieve_StoreFailure(t *testing.T) {
	svc := New(&mockEmbedder{vec: query}, nil, &mockDocs{err: errors.New("conn reset")}, DefaultConfig())

	_, err := svc.Retrieve(context.Background(), "hello")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestRetrieve_CancelledAfterANN(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ann := &mockANN{supported: true}
	docs := &mockDocs{docs: fixtureCorpus()}
	emb := &cancelingEmbedder{vec: query, cancel: cancel}
	svc := New(emb, ann, docs, DefaultConfig())

	_, err := svc.Retrieve(ctx, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if docs.calls != 0 {
		t.Error("exhaustive scan should not start after cancellation")
	}
}

type cancelingEmbedder struct {
	vec    []float32
	cancel context.CancelFunc
}

func (c *cancelingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	c.cancel()
	return domain.EmbeddingResult{Embedding: c.vec}, nil
}

func TestRetrieve_CountsPath(t *testing.T) {
	exhaustive := metrics.RetrievalTotal.WithLabelValues("exhaustive")
	before := testutil.ToFloat64(exhaustive)

	svc := New(&mockEmbedder{vec: query}, nil, &mockDocs{docs: fixtureCorpus()}, DefaultConfig())
	if _, err := svc.Retrieve(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := testutil.ToFloat64(exhaustive) - before; diff != 1 {
		t.Errorf("expected exhaustive counter +1, got %v", diff)
	}
}

func TestFormatContext(t *testing.T) {
	rs := []result.Result{
		result.New("1", "insulation.txt", "  Keeps food cold.\n", 0.41234, result.PathExhaustive),
		result.New("2", "warranty.pdf", "Two years.", 0.1, result.PathExhaustive),
	}
	want := "insulation.txt: Keeps food cold. (Score: 0.412)\n\nwarranty.pdf: Two years. (Score: 0.100)"
	if got := FormatContext(rs); got != want {
		t.Errorf("FormatContext:\ngot:  %q\nwant: %q", got, want)
	}
	if FormatContext(nil) != "" {
		t.Error("expected empty string for no results")
	}
}

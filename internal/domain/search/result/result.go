package result

// Path names the retrieval path that produced a result set.
// Scores are comparable only within one path.
type Path string

const (
	// PathANN is the approximate nearest neighbour index.
	PathANN Path = "ann"
	// PathExhaustive is the full cosine scan over stored embeddings.
	PathExhaustive Path = "exhaustive"
)

// Result is a single semantic retrieval hit.
type Result struct {
	id    string
	title string
	text  string
	score float64
	path  Path
}

// New creates a retrieval result.
func New(id, title, text string, score float64, path Path) Result {
	return Result{id: id, title: title, text: text, score: score, path: path}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Title returns the document title.
func (r *Result) Title() string { return r.title }

// Text returns the document text.
func (r *Result) Text() string { return r.text }

// Score returns the cosine similarity in [-1, 1].
func (r *Result) Score() float64 { return r.score }

// Path returns the retrieval path that scored this result.
func (r *Result) Path() Path { return r.path }

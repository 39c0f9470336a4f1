package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/filetype"
	"github.com/kailas-cloud/supportrag/internal/logger"
	"github.com/kailas-cloud/supportrag/internal/transport/extract"
	healthuc "github.com/kailas-cloud/supportrag/internal/usecase/health"
	"github.com/kailas-cloud/supportrag/internal/usecase/ingest"
	"github.com/kailas-cloud/supportrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/supportrag/internal/version"
)

const (
	defaultMaxUploadMB = 20
	maxJSONBodyBytes   = 64 << 10
	uploadField        = "file"
)

// Options configures request handling.
type Options struct {
	MaxUploadMB int
	UploadedBy  string
}

// Server holds the HTTP handlers of the API.
type Server struct {
	retriever Retriever
	ingester  Ingester
	website   WebsiteSearcher
	documents DocumentReader
	health    HealthChecker
	opts      Options
}

// NewServer creates an HTTP API server.
func NewServer(
	retriever Retriever,
	ingester Ingester,
	website WebsiteSearcher,
	documents DocumentReader,
	health HealthChecker,
	opts Options,
) *Server {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = defaultMaxUploadMB
	}
	return &Server{
		retriever: retriever,
		ingester:  ingester,
		website:   website,
		documents: documents,
		health:    health,
		opts:      opts,
	}
}

// FetchContext handles POST /api/fetch-context.
func (s *Server) FetchContext(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.retriever.Retrieve(ctx, query)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contextResponse{Context: retrieval.FormatContext(results)})
}

// FetchWebsite handles POST /api/fetch-website.
func (s *Server) FetchWebsite(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	content, err := s.website.Content(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrNoRelevantContent) {
			writeError(w, http.StatusNotFound, "No relevant content")
			return
		}
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, websiteResponse{Content: content})
}

// UploadDocument handles POST /api/upload-document (multipart, field "file").
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.opts.MaxUploadMB) << 20
	tooLarge := func() {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %d MB upload limit", s.opts.MaxUploadMB))
	}
	if r.ContentLength > maxBytes {
		tooLarge()
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			tooLarge()
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	ft, ok := filetype.Resolve(header.Filename, header.Header.Get("Content-Type"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Unsupported file type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	text, err := extract.Text(ft, data)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	doc, err := s.ingester.Ingest(ctx, ingest.Input{
		Title:      header.Filename,
		Text:       text,
		FileType:   ft,
		UploadedBy: s.opts.UploadedBy,
	})
	setEmbeddingHeaders(w, usage)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message: "Document uploaded and processed successfully",
		Title:   doc.Title(),
	})
}

// ListDocuments handles GET /api/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format for parameter limit")
		return
	}

	n := 0
	if limit != nil {
		n = *limit
	}
	docs, total, err := s.documents.List(r.Context(), n)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	items := make([]documentResponse, len(docs))
	for i := range docs {
		items[i] = documentToResponse(&docs[i])
		items[i].Text = ""
	}
	writeJSON(w, http.StatusOK, documentListResponse{Items: items, Total: total})
}

// GetDocument handles GET /api/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format for parameter id")
		return
	}

	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Calls > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req queryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes)).Decode(&req); err != nil {
		logger.FromContext(r.Context()).Debug("invalid request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return "", false
	}
	return req.Query, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

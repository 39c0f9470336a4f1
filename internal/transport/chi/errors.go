package chi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/logger"
)

const msgNoRelevantContent = "No relevant content found"

// statusClientClosedRequest is the nginx convention for a request the
// client abandoned before a response was written.
const statusClientClosedRequest = 499

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// errorHandlers is ordered: narrower sentinels come before the ones they wrap.
var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, "Query is required"),
	sentinelHandler(domain.ErrEmptyContent, http.StatusBadRequest, "Document contains no extractable text"),
	sentinelHandler(domain.ErrUnsupportedFileType, http.StatusBadRequest, "Unsupported file type"),
	sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, "Invalid request"),
	sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, "Document not found"),
	sentinelHandler(domain.ErrNoRelevantContent, http.StatusNotFound, msgNoRelevantContent),
	sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, "Embedding model returned an invalid vector"),
	sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, "Embedding model unavailable"),
	sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "Document store unavailable"),
	sentinelHandler(context.DeadlineExceeded, http.StatusServiceUnavailable, "Request timed out"),
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, message)
		return true
	}
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	// Checked first: a cancelled request can also surface as a store error.
	if errors.Is(err, context.Canceled) {
		log.Debug("request canceled by client", zap.Error(err))
		writeError(w, statusClientClosedRequest, "Request canceled")
		return
	}
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

package chi

import (
	"time"

	domdoc "github.com/kailas-cloud/supportrag/internal/domain/document"
)

type queryRequest struct {
	Query string `json:"query"`
}

type contextResponse struct {
	Context string `json:"context"`
}

type websiteResponse struct {
	Content string `json:"content"`
}

type uploadResponse struct {
	Message string `json:"message"`
	Title   string `json:"title"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// documentResponse never carries the embedding. Text is omitted in listings.
type documentResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Text       string    `json:"text,omitempty"`
	FileType   string    `json:"file_type"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type documentListResponse struct {
	Items []documentResponse `json:"items"`
	Total int                `json:"total"`
}

func documentToResponse(d *domdoc.Document) documentResponse {
	return documentResponse{
		ID:         d.ID(),
		Title:      d.Title(),
		Text:       d.Text(),
		FileType:   d.FileType().String(),
		UploadedBy: d.UploadedBy(),
		UploadedAt: d.UploadedAt(),
	}
}

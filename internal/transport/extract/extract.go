// Package extract turns uploaded file bytes into plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/supportrag/internal/domain"
	"github.com/kailas-cloud/supportrag/internal/domain/filetype"
)

// Text extracts the plain text of data according to ft.
// Unreadable files return an error wrapping domain.ErrInvalidInput.
func Text(ft filetype.FileType, data []byte) (string, error) {
	switch ft {
	case filetype.PDF:
		return pdfText(data)
	case filetype.DOCX:
		return docxText(data)
	case filetype.Text:
		return plainText(data), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, ft)
	}
}

func plainText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}

func pdfText(data []byte) (text string, err error) {
	// The PDF parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: malformed pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", domain.ErrInvalidInput, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: read pdf text: %w", domain.ErrInvalidInput, err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: read pdf text: %w", domain.ErrInvalidInput, err)
	}
	return string(out), nil
}

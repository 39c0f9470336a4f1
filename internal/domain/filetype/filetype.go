// Package filetype resolves uploaded files to one of the supported source kinds.
// Resolution happens once at the upload boundary; downstream code only sees FileType.
package filetype

import (
	"path/filepath"
	"strings"
)

// FileType is the kind of source an ingested document was extracted from.
type FileType string

const (
	// PDF is a Portable Document Format file.
	PDF FileType = "pdf"
	// DOCX is an Office Open XML word-processing file.
	DOCX FileType = "docx"
	// Text is a plain UTF-8 text file.
	Text FileType = "txt"
)

var docxMIMETypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword":       true,
	"application/octet-stream": true,
}

// Valid reports whether ft is one of the supported kinds.
func (ft FileType) Valid() bool {
	switch ft {
	case PDF, DOCX, Text:
		return true
	}
	return false
}

func (ft FileType) String() string { return string(ft) }

// Resolve picks the FileType for an uploaded file from its MIME type and extension.
// PDF wins over DOCX, DOCX over text, mirroring how browsers label uploads.
func Resolve(filename, mimeType string) (FileType, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	mimeType = normalizeMIME(mimeType)

	switch {
	case mimeType == "application/pdf" || ext == "pdf":
		return PDF, true
	case docxMIMETypes[mimeType] || ext == "docx" || ext == "doc":
		return DOCX, true
	case mimeType == "text/plain" || ext == "txt":
		return Text, true
	}
	return "", false
}

// Parse converts a stored value back into a FileType.
func Parse(s string) (FileType, bool) {
	ft := FileType(strings.ToLower(s))
	return ft, ft.Valid()
}

func normalizeMIME(m string) string {
	m, _, _ = strings.Cut(m, ";")
	return strings.ToLower(strings.TrimSpace(m))
}

package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/supportrag/internal/domain"
)

const docxBody = "word/document.xml"

// docxText reads the main document part. Paragraphs and table rows end
// with a newline; table cells are separated by tabs.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %w", domain.ErrInvalidInput, err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, docxBody) {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%w: docx has no %s", domain.ErrInvalidInput, docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, docxBody, err)
	}
	defer rc.Close()

	return docxXMLText(rc)
}

func docxXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	atLineStart := true

	newline := func() {
		if !atLineStart {
			b.WriteByte('\n')
			atLineStart = true
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: parse docx xml: %w", domain.ErrInvalidInput, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return "", fmt.Errorf("%w: parse docx text run: %w", domain.ErrInvalidInput, err)
				}
				b.WriteString(s)
				atLineStart = false
			case "tab":
				b.WriteByte('\t')
				atLineStart = false
			case "br", "cr":
				b.WriteByte('\n')
				atLineStart = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				newline()
			case "tc":
				if !atLineStart {
					b.WriteByte('\t')
				}
			}
		}
	}
	return b.String(), nil
}

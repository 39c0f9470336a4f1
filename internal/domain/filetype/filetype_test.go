package filetype

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		filename string
		mime     string
		want     FileType
		ok       bool
	}{
		{"manual.pdf", "application/pdf", PDF, true},
		{"manual.PDF", "", PDF, true},
		{"scan.bin", "application/pdf", PDF, true},
		{"guide.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", DOCX, true},
		{"legacy.doc", "", DOCX, true},
		{"upload", "application/octet-stream", DOCX, true},
		{"notes.txt", "text/plain; charset=utf-8", Text, true},
		{"notes", "text/plain", Text, true},
		{"sheet.xlsx", "application/vnd.ms-excel", "", false},
		{"image.png", "image/png", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			got, ok := Resolve(tc.filename, tc.mime)
			if ok != tc.ok || got != tc.want {
				t.Errorf("Resolve(%q, %q) = %q, %v; want %q, %v", tc.filename, tc.mime, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if ft, ok := Parse("PDF"); !ok || ft != PDF {
		t.Errorf("Parse(PDF) = %q, %v", ft, ok)
	}
	if _, ok := Parse("xls"); ok {
		t.Error("Parse(xls) should fail")
	}
}

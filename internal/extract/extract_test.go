package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func docx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXText(t *testing.T) {
	data := docx(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+
		`<w:p><w:r><w:t>Ada Lovelace</w:t></w:r></w:p><w:p><w:r><w:t>Engineer &amp; Writer</w:t></w:r></w:p></w:body></w:document>`)

	text, err := DOCXText(data)
	if err != nil {
		t.Fatalf("DOCXText: %v", err)
	}
	if text != "Ada Lovelace\nEngineer & Writer" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestDOCXTextMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("notes.txt")
	_, _ = w.Write([]byte("hello"))
	_ = zw.Close()

	_, err := DOCXText(buf.Bytes())
	if err == nil || !strings.Contains(err.Error(), "document.xml") {
		t.Fatalf("expected missing document error, got %v", err)
	}
}

func TestInspectPDF(t *testing.T) {
	info, err := InspectPDF(MinimalPDF(2))
	if err != nil {
		t.Fatalf("InspectPDF: %v", err)
	}
	if info.Pages != 2 {
		t.Fatalf("expected 2 pages, got %d", info.Pages)
	}

	if _, err := InspectPDF(MinimalPDF(0)); !errors.Is(err, ErrEmptyPDF) {
		t.Fatalf("expected ErrEmptyPDF, got %v", err)
	}
	if _, err := InspectPDF([]byte("not a pdf")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		file string
		head []byte
		want string
	}{
		{name: "pdf ext", file: "resume.pdf", want: MimePDF},
		{name: "docx ext", file: "resume.docx", want: MimeDOCX},
		{name: "tex ext", file: "resume.tex", want: MimeTeX},
		{name: "sniff pdf", file: "blob", head: []byte("%PDF-1.4"), want: MimePDF},
		{name: "sniff zip", file: "blob", head: []byte("PK\x03\x04rest"), want: MimeDOCX},
		{name: "unknown", file: "blob", want: "application/octet-stream"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ContentType(tt.file, tt.head); got != tt.want {
				t.Fatalf("ContentType(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

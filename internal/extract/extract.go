// Package extract inspects rendered resume artifacts.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeTeX  = "application/x-tex"
)

// ErrEmptyPDF is returned for a PDF that parses but has no pages.
var ErrEmptyPDF = errors.New("pdf has no pages")

// PDFInfo summarizes a PDF.
type PDFInfo struct {
	Pages int
}

// InspectPDF parses data and requires at least one page.
// Library used: github.com/ledongthuc/pdf.
func InspectPDF(data []byte) (PDFInfo, error) {
	if len(data) == 0 {
		return PDFInfo{}, errors.New("empty pdf data")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return PDFInfo{}, fmt.Errorf("parse pdf: %w", err)
	}
	pages := reader.NumPage()
	if pages < 1 {
		return PDFInfo{}, ErrEmptyPDF
	}
	return PDFInfo{Pages: pages}, nil
}

// DOCXText returns the paragraph text of word/document.xml.
func DOCXText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// ContentType picks the MIME type for an artifact by extension, sniffing
// zip payloads for a Word document.
func ContentType(fileName string, head []byte) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".tex":
		return MimeTeX
	}
	if bytes.HasPrefix(head, []byte("%PDF-")) {
		return MimePDF
	}
	if bytes.HasPrefix(head, []byte("PK\x03\x04")) {
		return MimeDOCX
	}
	return "application/octet-stream"
}

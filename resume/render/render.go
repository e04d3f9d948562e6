package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-generator/internal/extract"
	"resume-generator/internal/shared/config"
	"resume-generator/internal/shared/metrics"
	"resume-generator/internal/shared/telemetry"
	"resume-generator/resume/model"
)

// ErrRender is returned once every render attempt has failed.
var ErrRender = errors.New("render failed")

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown format")

// Format selects the template and converter.
type Format string

const (
	FormatLatex Format = "latex"
	FormatWord  Format = "word"
)

// ParseFormat accepts latex/tex and word/docx, case-insensitively.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "latex", "tex":
		return FormatLatex, nil
	case "word", "docx":
		return FormatWord, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
}

// SourceName is the file name of the intermediate document.
func (f Format) SourceName() string {
	if f == FormatWord {
		return "resume.docx"
	}
	return "resume.tex"
}

// ContentType of the intermediate document.
func (f Format) ContentType() string {
	if f == FormatWord {
		return extract.MimeDOCX
	}
	return extract.MimeTeX
}

// PDFName is the file name of the converted artifact.
const PDFName = "resume.pdf"

// Document is everything a template needs.
type Document struct {
	Draft   model.Draft
	Profile model.Profile
}

// Output holds both artifacts of a successful render.
type Output struct {
	Format     Format
	SourceName string
	Source     []byte
	PDF        []byte
	Pages      int
	Attempts   int
}

// Converter turns a source file into a PDF inside outDir and returns the PDF path.
type Converter interface {
	Convert(ctx context.Context, srcPath, outDir string) (string, error)
}

// Renderer fills templates and converts them, retrying transient failures.
type Renderer struct {
	Latex       Converter
	Word        Converter
	MaxAttempts int
	Backoff     time.Duration
	// TempDir is the parent of per-attempt work dirs. Empty means os.TempDir.
	TempDir string
}

// New builds a Renderer using the external converters from cfg.
func New(cfg config.Pipeline) *Renderer {
	return &Renderer{
		Latex:       PDFLatex{Path: cfg.PDFLatexPath},
		Word:        Soffice{Path: cfg.SofficePath},
		MaxAttempts: cfg.RenderMaxAttempts,
		Backoff:     500 * time.Millisecond,
	}
}

// Source fills the template for format without converting it.
func Source(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatLatex:
		return renderLatex(doc)
	case FormatWord:
		return renderDocx(doc)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Render produces the source document and its PDF. Both are returned together
// or not at all.
func (r *Renderer) Render(ctx context.Context, doc Document, format Format) (Output, error) {
	conv, err := r.converter(format)
	if err != nil {
		return Output{}, err
	}

	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		metrics.IncRenderAttempt()
		out, err := r.renderOnce(ctx, doc, format, conv)
		if err == nil {
			out.Attempts = attempt
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Output{}, ctxErr
		}
		lastErr = err
		telemetry.Warn("render.retry", map[string]any{
			"format":  string(format),
			"attempt": attempt,
			"err":     err,
		})
		if attempt == attempts || r.Backoff <= 0 {
			continue
		}
		timer := time.NewTimer(r.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Output{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Output{}, fmt.Errorf("%w: %v", ErrRender, lastErr)
}

func (r *Renderer) converter(format Format) (Converter, error) {
	var conv Converter
	switch format {
	case FormatLatex:
		conv = r.Latex
	case FormatWord:
		conv = r.Word
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: no converter for %s", ErrRender, format)
	}
	return conv, nil
}

func (r *Renderer) renderOnce(ctx context.Context, doc Document, format Format, conv Converter) (Output, error) {
	src, err := Source(doc, format)
	if err != nil {
		return Output{}, fmt.Errorf("fill template: %w", err)
	}

	dir, err := os.MkdirTemp(r.TempDir, "render-*")
	if err != nil {
		return Output{}, err
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, format.SourceName())
	if err := os.WriteFile(srcPath, src, 0o600); err != nil {
		return Output{}, err
	}

	pdfPath, err := conv.Convert(ctx, srcPath, dir)
	if err != nil {
		return Output{}, fmt.Errorf("convert: %w", err)
	}
	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return Output{}, fmt.Errorf("read pdf: %w", err)
	}
	info, err := extract.InspectPDF(pdfBytes)
	if err != nil {
		return Output{}, fmt.Errorf("verify pdf: %w", err)
	}

	return Output{
		Format:     format,
		SourceName: format.SourceName(),
		Source:     src,
		PDF:        pdfBytes,
		Pages:      info.Pages,
	}, nil
}

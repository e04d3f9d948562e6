package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrConverterMissing is returned when the converter binary is not on PATH.
var ErrConverterMissing = errors.New("converter not found")

// PDFLatex converts .tex sources with pdflatex.
type PDFLatex struct {
	Path string
}

func (c PDFLatex) command(ctx context.Context, srcPath, outDir string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, binary(c.Path, "pdflatex"),
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory", outDir,
		srcPath,
	)
	cmd.Dir = outDir
	return cmd
}

// Convert runs pdflatex and returns the produced PDF path.
func (c PDFLatex) Convert(ctx context.Context, srcPath, outDir string) (string, error) {
	return run(c.command(ctx, srcPath, outDir), srcPath, outDir)
}

// Soffice converts .docx sources with LibreOffice in headless mode.
type Soffice struct {
	Path string
}

func (c Soffice) command(ctx context.Context, srcPath, outDir string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, binary(c.Path, "soffice"),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		srcPath,
	)
	cmd.Dir = outDir
	// soffice refuses to start twice on one profile; keep it per work dir.
	cmd.Env = append(os.Environ(), "HOME="+outDir)
	return cmd
}

// Convert runs soffice and returns the produced PDF path.
func (c Soffice) Convert(ctx context.Context, srcPath, outDir string) (string, error) {
	return run(c.command(ctx, srcPath, outDir), srcPath, outDir)
}

func binary(path, fallback string) string {
	if strings.TrimSpace(path) == "" {
		return fallback
	}
	return path
}

func run(cmd *exec.Cmd, srcPath, outDir string) (string, error) {
	if _, err := exec.LookPath(cmd.Path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrConverterMissing, cmd.Path)
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", filepath.Base(cmd.Path), err, tail(output.String(), 400))
	}

	pdfPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("%s produced no pdf: %w", filepath.Base(cmd.Path), err)
	}
	return pdfPath, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Package ocr runs optical character recognition over image-only
// documents. Pages are rasterized in-process with MuPDF and handed to the
// tesseract binary; a missing binary degrades the engine to a failure
// result instead of failing the pipeline.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	fitz "github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// Config bounds the cost of an OCR run.
type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Lang     string `mapstructure:"lang"`
	MaxPages int    `mapstructure:"max_pages"`
	DPI      int    `mapstructure:"dpi"`
	// MinChars stops the page loop early once this many characters have
	// accumulated. OCR is the most expensive stage in the cascade.
	MinChars int `mapstructure:"min_chars"`
}

// Engine implements edital.OcrEngine on top of the tesseract CLI.
type Engine struct {
	cfg       Config
	logger    *zap.Logger
	tesseract string
}

// New probes for the tesseract binary and returns an engine bound to it.
// The engine is still constructed when the binary is absent; Available
// reports the difference and Recognize fails softly.
func New(cfg Config, logger *zap.Logger) *Engine {
	path, err := exec.LookPath("tesseract")
	if err != nil {
		path = ""
		logger.Warn("tesseract binary not found, ocr degraded to unavailable")
	}
	return &Engine{cfg: cfg, logger: logger, tesseract: path}
}

// Available reports whether the engine can actually run.
func (e *Engine) Available() bool {
	return e.cfg.Enabled && e.tesseract != ""
}

// Recognize rasterizes up to MaxPages pages at the configured DPI and
// OCRs them, stopping early once MinChars characters are in hand.
func (e *Engine) Recognize(ctx context.Context, pdfData []byte) edital.StageResult[string] {
	if !e.Available() {
		return edital.Fail[string]("ocr engine unavailable")
	}
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return edital.FailErr[string](err)
	}
	defer doc.Close()

	tmpDir, err := os.MkdirTemp("", "edital-ocr-*")
	if err != nil {
		return edital.FailErr[string](err)
	}
	defer os.RemoveAll(tmpDir)

	pages := doc.NumPage()
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		pages = e.cfg.MaxPages
	}

	var sb strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return edital.FailErr[string](err)
		}
		img, err := doc.ImageDPI(i, float64(e.cfg.DPI))
		if err != nil {
			e.logger.Debug("page rasterization failed", zap.Int("page", i), zap.Error(err))
			continue
		}
		imgPath := filepath.Join(tmpDir, fmt.Sprintf("page-%03d.png", i))
		if err := writePNG(imgPath, img); err != nil {
			continue
		}
		text, err := e.runTesseract(ctx, imgPath)
		if err != nil {
			e.logger.Debug("tesseract failed", zap.Int("page", i), zap.Error(err))
			continue
		}
		if text != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(text)
		}
		if e.cfg.MinChars > 0 && sb.Len() >= e.cfg.MinChars {
			break
		}
	}

	combined := strings.TrimSpace(sb.String())
	if combined == "" {
		return edital.Fail[string]("ocr produced no text")
	}
	return edital.Ok(combined)
}

// RecognizeImage OCRs a standalone image (origin links occasionally point
// straight at a scanned page).
func (e *Engine) RecognizeImage(ctx context.Context, imageData []byte) edital.StageResult[string] {
	if !e.Available() {
		return edital.Fail[string]("ocr engine unavailable")
	}
	tmp, err := os.CreateTemp("", "edital-ocr-img-*")
	if err != nil {
		return edital.FailErr[string](err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(imageData); err != nil {
		tmp.Close()
		return edital.FailErr[string](err)
	}
	tmp.Close()

	text, err := e.runTesseract(ctx, tmp.Name())
	if err != nil {
		return edital.FailErr[string](err)
	}
	if text == "" {
		return edital.Fail[string]("ocr produced no text")
	}
	return edital.Ok(text)
}

func (e *Engine) runTesseract(ctx context.Context, imagePath string) (string, error) {
	lang := e.cfg.Lang
	if lang == "" {
		lang = "por"
	}
	cmd := exec.CommandContext(ctx, e.tesseract, imagePath, "stdout", "-l", lang, "--psm", "3")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run tesseract: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create page image: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode page image: %w", err)
	}
	return nil
}
